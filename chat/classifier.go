package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"waypoint/apperr"
	"waypoint/planner"
	"waypoint/providers"
)

// CompletionClient is the slice of the AI provider the classifier needs.
type CompletionClient interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResult, error)
}

// Classifier turns a user message into one of the fixed structured
// reply types. It never mutates state; persistence of the resulting
// message is the caller's responsibility.
type Classifier struct {
	AI        CompletionClient
	Model     string
	MaxTokens int
	Timezone  string

	// now is swappable for tests
	now func() time.Time
}

// NewClassifier creates a chat intent classifier.
func NewClassifier(ai CompletionClient, model string, maxTokens int, timezone string) *Classifier {
	return &Classifier{
		AI:        ai,
		Model:     model,
		MaxTokens: maxTokens,
		Timezone:  timezone,
		now:       time.Now,
	}
}

// ClassifyRequest carries one classification call.
type ClassifyRequest struct {
	Message         string
	History         []Turn
	PlanState       planner.PlanState
	ActiveTask      *planner.Task // nil when all tasks are completed or deleted
	CalendarEnabled bool
}

// rawReply is the untrusted wire shape of the model's reply.
type rawReply struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	TaskID  string         `json:"taskId"`
	Payload *EventProposal `json:"payload"`
}

// Classify returns a well-formed structured reply for the user's
// message. Output-shape problems from the model are degraded to
// ASK_CLARIFICATION; only transport failures surface as errors.
func (c *Classifier) Classify(ctx context.Context, req ClassifyRequest) (*Reply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperr.New(apperr.InvalidArgument, "missing message")
	}

	// A generating plan has no tasks yet; without this branch the
	// nil-active-task path below would claim everything is done.
	if req.PlanState == planner.PlanGenerating {
		return &Reply{
			Type:    NormalReply,
			Message: "Your roadmap has not been generated yet. Generate it to get started.",
		}, nil
	}

	// No AI call needed when there is nothing left to evaluate
	if req.ActiveTask == nil {
		return &Reply{
			Type:    NormalReply,
			Message: "All tasks are completed. Create a new plan.",
		}, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}

	messages := make([]providers.ChatMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		messages = append(messages, providers.ChatMessage{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, providers.ChatMessage{Role: "user", Content: req.Message})

	result, err := c.AI.Complete(ctx, providers.CompletionRequest{
		Model:     c.Model,
		System:    buildSystemPrompt(req.ActiveTask, c.now().In(loc), c.Timezone, req.CalendarEnabled),
		Messages:  messages,
		MaxTokens: c.MaxTokens,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "ai request failed")
	}

	return c.interpret(result.Text, req), nil
}

// interpret validates the model's raw output into a Reply. Anything
// off-shape becomes ASK_CLARIFICATION; a hard failure is never
// surfaced to the end user for a malformed model response.
func (c *Classifier) interpret(text string, req ClassifyRequest) *Reply {
	var raw rawReply
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &raw); err != nil {
		logger.LogErr(err, "invalid JSON from classifier model")
		return clarify("Can you clarify what you mean?")
	}

	switch ReplyType(raw.Type) {
	case NormalReply, AskClarification:
		return &Reply{Type: ReplyType(raw.Type), Message: raw.Message}

	case ProposeTaskCompletion:
		// Trust boundary: the model decides THAT completion is
		// warranted, never WHICH task.
		return &Reply{
			Type:    ProposeTaskCompletion,
			Message: raw.Message,
			TaskID:  req.ActiveTask.ID,
		}

	case ProposeCreateCalendarEvent:
		if !req.CalendarEnabled {
			return clarify("Calendar is not connected. Connect Google Calendar first.")
		}
		if raw.Payload == nil || raw.Payload.Title == "" ||
			raw.Payload.StartISO == "" || raw.Payload.EndISO == "" {
			logger.Info("Calendar proposal missing fields, asking for clarification")
			return clarify("What should I schedule, and when?")
		}
		return &Reply{
			Type:    ProposeCreateCalendarEvent,
			Message: raw.Message,
			Event:   raw.Payload,
		}

	default:
		logger.Info("Unrecognized reply type from model", "type", raw.Type)
		return clarify("Tell me more clearly.")
	}
}

// stripCodeFences removes a surrounding markdown code fence, which
// models sometimes emit despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
