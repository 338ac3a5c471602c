package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionNav    Action = "nav"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload is the single client frame shape. Fields beyond Action are
// read per action: q_id/ans for answer, direction for nav.
type RequestPayload struct {
	Action     Action `json:"action"`
	QuestionID string `json:"q_id,omitempty"`
	Answer     string `json:"ans,omitempty"`
	Direction  string `json:"direction,omitempty"` // "next" or "prev"
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError         Event = "error"
	EventSuccess       Event = "success"
	EventTick          Event = "tick"
	EventForcedAdvance Event = "forced_advance"
	EventGraded        Event = "graded"
	EventPong          Event = "pong"
)

type AnswerResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TickResponse carries the authoritative remaining time each second.
type TickResponse struct {
	Event         Event `json:"event"`
	RemainingSecs int   `json:"remaining"`
	Cursor        int   `json:"cursor"`
}

// ForcedAdvanceResponse notifies the client that a per-question timer
// expired and the cursor moved without client input.
type ForcedAdvanceResponse struct {
	Event  Event `json:"event"`
	Cursor int   `json:"cursor"`
}

type GradedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	Score  int    `json:"score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
