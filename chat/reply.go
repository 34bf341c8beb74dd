// Package chat classifies free-form user messages into the fixed set
// of structured replies that drive the task-completion state machine.
package chat

// ReplyType tags a structured reply.
type ReplyType string

const (
	NormalReply                ReplyType = "NORMAL_REPLY"
	AskClarification           ReplyType = "ASK_CLARIFICATION"
	ProposeTaskCompletion      ReplyType = "PROPOSE_TASK_COMPLETION"
	ProposeCreateCalendarEvent ReplyType = "PROPOSE_CREATE_CALENDAR_EVENT"
)

// EventProposal is the extracted calendar event of a
// PROPOSE_CREATE_CALENDAR_EVENT reply. Times are ISO-8601.
type EventProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartISO    string `json:"startISO"`
	EndISO      string `json:"endISO"`
}

// Reply is the classifier's fixed-shape output. TaskID is set only for
// PROPOSE_TASK_COMPLETION and always carries the caller-supplied
// active task id, never a model-invented value. Event is set only for
// PROPOSE_CREATE_CALENDAR_EVENT.
type Reply struct {
	Type    ReplyType      `json:"type"`
	Message string         `json:"message"`
	TaskID  string         `json:"taskId,omitempty"`
	Event   *EventProposal `json:"payload,omitempty"`
}

// Turn is one entry of the conversation history given to the model.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func clarify(message string) *Reply {
	return &Reply{Type: AskClarification, Message: message}
}
