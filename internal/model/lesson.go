package model

// QuestionType discriminates how a question is rendered and validated.
type QuestionType string

const (
	QuestionTypeChoice   QuestionType = "CHOICE"
	QuestionTypeFreeText QuestionType = "FREE_TEXT"
	QuestionTypeAudio    QuestionType = "AUDIO"
)

// Question is a single assessment item as delivered by the upstream API.
// CorrectAnswer is opaque to the gateway beyond equality comparison: for
// choice questions it is the text of the correct option, so option order
// carries no meaning and any permutation stays answerable.
type Question struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	TimeLimitSecs int          `json:"timeLimit,omitempty"`
	Points        int          `json:"point,omitempty"`
}

// Lesson is an ordered collection of questions plus metadata. It is fetched
// read-only per attempt; the only local mutation is the ephemeral shuffle
// applied when a session starts.
type Lesson struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Questions     []Question `json:"questions"`
	MaxScore      int        `json:"maxScore"`
	PassThreshold int        `json:"passThreshold"`
	TimeLimitSecs int        `json:"timeLimit"`
}

// StudentQuestion is a question stripped of its correct answer, safe to send
// to the client.
type StudentQuestion struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	TimeLimitSecs int          `json:"timeLimit,omitempty"`
	Points        int          `json:"point,omitempty"`
}

// ForStudent strips the correct answer reference.
func (q Question) ForStudent() StudentQuestion {
	return StudentQuestion{
		ID:            q.ID,
		Prompt:        q.Prompt,
		Type:          q.Type,
		Options:       q.Options,
		TimeLimitSecs: q.TimeLimitSecs,
		Points:        q.Points,
	}
}
