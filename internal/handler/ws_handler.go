package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/middleware"
	"github.com/studyhall/studyhall-gateway/internal/session"
	ws "github.com/studyhall/studyhall-gateway/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live attempt over WebSocket: answers in, ticks and
// forced advances out.
type WSHandler struct {
	manager  *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/stream
// Upgrades to WebSocket for real-time answer saving, countdown ticks and
// forced-advance notifications. Requires a live or resumable attempt.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	userID := middleware.GetUserID(c)
	token := middleware.GetToken(c)

	ctrl, err := h.manager.Resume(c.Request.Context(), userID, token)
	if err != nil {
		failFromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", userID).
		Str("lesson_id", ctrl.LessonID()).
		Logger()

	wsLog.Info().Msg("Attempt stream connected")

	// gorilla/websocket allows one concurrent writer; the countdown goroutine
	// and the read loop both write, so serialize through a mutex.
	var writeMu sync.Mutex
	write := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := ws.WriteTyped(conn, v); err != nil {
			wsLog.Debug().Err(err).Msg("WebSocket write failed")
		}
	}

	ctrl.SetNotifier(func(ev session.Event) {
		switch ev.Type {
		case session.EventTick:
			write(ws.TickResponse{Event: ws.EventTick, RemainingSecs: ev.Remaining, Cursor: ev.Cursor})
		case session.EventForcedAdvance:
			write(ws.ForcedAdvanceResponse{Event: ws.EventForcedAdvance, Cursor: ev.Cursor})
		case session.EventSubmitted:
			score := 0
			if ev.Result != nil {
				score = ev.Result.ProvisionalScore
			}
			write(ws.GradedResponse{Event: ws.EventGraded, Status: "completed", Score: score})
		}
	})
	defer ctrl.SetNotifier(nil)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(c, ctrl, &msg, write)
		case ws.ActionNav:
			h.handleNav(ctrl, &msg, write)
		case ws.ActionSubmit:
			h.handleSubmit(c, ctrl, write, wsLog)
		case ws.ActionPing:
			write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// handleAnswer records one answer through the controller. Empty answers are
// allowed: they clear the prior value.
func (h *WSHandler) handleAnswer(c *gin.Context, ctrl *session.Controller, msg *ws.RequestPayload, write func(interface{})) {
	if msg.QuestionID == "" {
		write(ws.ErrorResponse{Event: ws.EventError, Error: "q_id is required"})
		return
	}

	if err := ctrl.RecordAnswer(c.Request.Context(), msg.QuestionID, msg.Answer); err != nil {
		write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		return
	}

	write(ws.AnswerResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleNav moves the cursor and echoes the new position.
func (h *WSHandler) handleNav(ctrl *session.Controller, msg *ws.RequestPayload, write func(interface{})) {
	var cursor int
	switch msg.Direction {
	case "next":
		cursor = ctrl.Advance()
	case "prev":
		cursor = ctrl.Retreat()
	default:
		write(ws.ErrorResponse{Event: ws.EventError, Error: "direction must be next or prev"})
		return
	}

	write(ws.TickResponse{Event: ws.EventTick, RemainingSecs: ctrl.Remaining(), Cursor: cursor})
}

// handleSubmit grades the attempt and reports the provisional score. The
// graded event also fires through the notifier, so direct callers get it
// either way.
func (h *WSHandler) handleSubmit(c *gin.Context, ctrl *session.Controller, write func(interface{}), wsLog zerolog.Logger) {
	result, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		wsLog.Error().Err(err).Msg("Submit over WebSocket failed")
		write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		return
	}

	wsLog.Info().
		Int("provisional", result.ProvisionalScore).
		Msg("Attempt submitted and graded")
}
