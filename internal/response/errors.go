package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt-specific ──────────────────────────────────────────────
	ErrNoActiveAttempt    ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptCompleted   ErrCode = "ATTEMPT_COMPLETED"
	ErrSubmissionInFlight ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrAnswerRejected     ErrCode = "ANSWER_REJECTED"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrUpstreamNetwork    ErrCode = "UPSTREAM_NETWORK_ERROR"
	ErrUpstreamValidation ErrCode = "UPSTREAM_VALIDATION_ERROR"
	ErrUpstreamAuth       ErrCode = "UPSTREAM_AUTH_ERROR"
	ErrUpstreamServer     ErrCode = "UPSTREAM_SERVER_ERROR"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Attempt-specific ──────────────────────────────────────────────
	case ErrNoActiveAttempt:
		return "No attempt is in progress. Load a lesson first."
	case ErrAttemptCompleted:
		return "This attempt has already been submitted."
	case ErrSubmissionInFlight:
		return "This attempt is being submitted right now."
	case ErrAnswerRejected:
		return "The answer is not one of the offered options."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrUpstreamNetwork:
		return "The learning service could not be reached. Please retry."
	case ErrUpstreamValidation:
		return "The learning service rejected the request."
	case ErrUpstreamAuth:
		return "Your session with the learning service has expired."
	case ErrUpstreamServer:
		return "The learning service reported an error. Please retry."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
