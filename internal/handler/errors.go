package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/middleware"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/session"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// upstreamCtx shortens the bearer-forwarding context dance in handlers.
func upstreamCtx(c *gin.Context) context.Context {
	return middleware.UpstreamContext(c)
}

// failFromError maps session and upstream errors onto the response envelope.
// Every handler funnels its non-validation failures through here so the error
// taxonomy stays uniform across endpoints.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	case errors.Is(err, session.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		return
	case errors.Is(err, session.ErrSubmissionInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionInFlight)
		return
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	case errors.Is(err, session.ErrInvalidChoice):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAnswerRejected)
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case upstream.KindNetwork:
			response.Fail(c, http.StatusBadGateway, response.ErrUpstreamNetwork)
		case upstream.KindValidation:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrUpstreamValidation, apiErr.Fields)
		case upstream.KindAuth:
			response.Fail(c, http.StatusUnauthorized, response.ErrUpstreamAuth)
		case upstream.KindNotFound:
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrUpstreamServer)
		}
		return
	}

	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
