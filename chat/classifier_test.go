package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"waypoint/apperr"
	"waypoint/planner"
	"waypoint/providers"
)

// fakeAI returns canned completion results and records the last request.
type fakeAI struct {
	text  string
	err   error
	calls int
	last  providers.CompletionRequest
}

func (f *fakeAI) Complete(_ context.Context, req providers.CompletionRequest) (*providers.CompletionResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &providers.CompletionResult{Text: f.text, StopReason: "end_turn"}, nil
}

func newTestClassifier(ai *fakeAI) *Classifier {
	c := NewClassifier(ai, "test-model", 1024, "Asia/Jakarta")
	c.now = func() time.Time {
		return time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC)
	}
	return c
}

func activeTask() *planner.Task {
	return &planner.Task{
		ID:          "task-7",
		OrderIndex:  2,
		Title:       "Practice chord transitions",
		Description: "Switch cleanly between G, C and D",
		Status:      planner.TaskPending,
	}
}

func classifyReq(message string) ClassifyRequest {
	return ClassifyRequest{
		Message:    message,
		PlanState:  planner.PlanActive,
		ActiveTask: activeTask(),
	}
}

func TestClassify(t *testing.T) {
	t.Run("normal reply passes through", func(t *testing.T) {
		ai := &fakeAI{text: `{"type":"NORMAL_REPLY","message":"Keep at it!"}`}
		reply, err := newTestClassifier(ai).Classify(context.Background(), classifyReq("how am I doing?"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != NormalReply || reply.Message != "Keep at it!" {
			t.Errorf("unexpected reply: %+v", reply)
		}
		if reply.TaskID != "" || reply.Event != nil {
			t.Errorf("normal reply must not carry task id or event: %+v", reply)
		}
	})

	t.Run("no active task short-circuits without an AI call", func(t *testing.T) {
		ai := &fakeAI{text: `{"type":"NORMAL_REPLY","message":"ignored"}`}
		reply, err := newTestClassifier(ai).Classify(context.Background(), ClassifyRequest{
			Message:    "what's next?",
			PlanState:  planner.PlanActive,
			ActiveTask: nil,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != NormalReply {
			t.Errorf("expected NORMAL_REPLY, got %s", reply.Type)
		}
		if !strings.Contains(reply.Message, "completed") {
			t.Errorf("unexpected message: %s", reply.Message)
		}
		if ai.calls != 0 {
			t.Errorf("AI must not be called without an active task")
		}
	})

	t.Run("generating plan is not told everything is done", func(t *testing.T) {
		ai := &fakeAI{text: `{"type":"NORMAL_REPLY","message":"ignored"}`}
		reply, err := newTestClassifier(ai).Classify(context.Background(), ClassifyRequest{
			Message:    "how is it going?",
			PlanState:  planner.PlanGenerating,
			ActiveTask: nil,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != NormalReply {
			t.Errorf("expected NORMAL_REPLY, got %s", reply.Type)
		}
		if !strings.Contains(reply.Message, "not been generated") {
			t.Errorf("unexpected message: %s", reply.Message)
		}
		if strings.Contains(reply.Message, "completed") {
			t.Errorf("generating plan must not report completion: %s", reply.Message)
		}
		if ai.calls != 0 {
			t.Errorf("AI must not be called for a generating plan")
		}
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		ai := &fakeAI{}
		_, err := newTestClassifier(ai).Classify(context.Background(), classifyReq("   "))
		if !apperr.Is(err, apperr.InvalidArgument) {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
		if ai.calls != 0 {
			t.Errorf("AI must not be called for an empty message")
		}
	})

	t.Run("completion proposal carries the caller's active task id", func(t *testing.T) {
		// A model-supplied taskId must never survive interpretation.
		ai := &fakeAI{text: `{"type":"PROPOSE_TASK_COMPLETION","message":"Mark it done?","taskId":"task-999"}`}
		reply, err := newTestClassifier(ai).Classify(context.Background(), classifyReq("I finished it"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != ProposeTaskCompletion {
			t.Fatalf("expected PROPOSE_TASK_COMPLETION, got %s", reply.Type)
		}
		if reply.TaskID != "task-7" {
			t.Errorf("expected task id task-7, got %s", reply.TaskID)
		}
	})

	t.Run("calendar proposal with full payload", func(t *testing.T) {
		ai := &fakeAI{text: `{"type":"PROPOSE_CREATE_CALENDAR_EVENT","message":"Add it?","payload":{
			"title":"Practice session","description":"Chords","startISO":"2026-02-18T09:00:00","endISO":"2026-02-18T10:00:00"}}`}
		req := classifyReq("schedule practice tomorrow at 9")
		req.CalendarEnabled = true

		reply, err := newTestClassifier(ai).Classify(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != ProposeCreateCalendarEvent {
			t.Fatalf("expected PROPOSE_CREATE_CALENDAR_EVENT, got %s", reply.Type)
		}
		if reply.Event == nil || reply.Event.Title != "Practice session" {
			t.Errorf("unexpected event: %+v", reply.Event)
		}
	})

	t.Run("degrades to clarification", func(t *testing.T) {
		tests := []struct {
			name     string
			text     string
			calendar bool
		}{
			{"malformed json", "Sure, I'll mark that done for you!", false},
			{"unknown type", `{"type":"DELETE_EVERYTHING","message":"ok"}`, false},
			{"calendar proposal while disconnected", `{"type":"PROPOSE_CREATE_CALENDAR_EVENT","message":"Add it?","payload":{
				"title":"T","description":"D","startISO":"2026-02-18T09:00:00","endISO":"2026-02-18T10:00:00"}}`, false},
			{"calendar proposal missing times", `{"type":"PROPOSE_CREATE_CALENDAR_EVENT","message":"Add it?","payload":{
				"title":"Practice session","description":"Chords"}}`, true},
			{"calendar proposal without payload", `{"type":"PROPOSE_CREATE_CALENDAR_EVENT","message":"Add it?"}`, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ai := &fakeAI{text: tt.text}
				req := classifyReq("did I finish?")
				req.CalendarEnabled = tt.calendar

				reply, err := newTestClassifier(ai).Classify(context.Background(), req)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if reply.Type != AskClarification {
					t.Errorf("expected ASK_CLARIFICATION, got %s", reply.Type)
				}
				if reply.Message == "" {
					t.Error("clarification must carry a message")
				}
			})
		}
	})

	t.Run("accepts fenced model output", func(t *testing.T) {
		ai := &fakeAI{text: "```json\n{\"type\":\"NORMAL_REPLY\",\"message\":\"Nice work\"}\n```"}
		reply, err := newTestClassifier(ai).Classify(context.Background(), classifyReq("thanks"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Type != NormalReply || reply.Message != "Nice work" {
			t.Errorf("unexpected reply: %+v", reply)
		}
	})

	t.Run("transport failure surfaces Internal", func(t *testing.T) {
		ai := &fakeAI{err: errors.New("connection reset")}
		_, err := newTestClassifier(ai).Classify(context.Background(), classifyReq("hello"))
		if !apperr.Is(err, apperr.Internal) {
			t.Errorf("expected Internal, got %v", err)
		}
	})

	t.Run("history precedes the new message in order", func(t *testing.T) {
		ai := &fakeAI{text: `{"type":"NORMAL_REPLY","message":"ok"}`}
		req := classifyReq("and now?")
		req.History = []Turn{
			{Role: "user", Text: "first"},
			{Role: "assistant", Text: "second"},
		}

		if _, err := newTestClassifier(ai).Classify(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msgs := ai.last.Messages
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		if msgs[0].Content != "first" || msgs[1].Content != "second" || msgs[2].Content != "and now?" {
			t.Errorf("unexpected message order: %+v", msgs)
		}
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC)

	t.Run("anchors date and active task", func(t *testing.T) {
		prompt := buildSystemPrompt(activeTask(), now, "Asia/Jakarta", false)
		for _, want := range []string{"2026-02-17", "Asia/Jakarta", "Practice chord transitions"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
		if strings.Contains(prompt, string(ProposeCreateCalendarEvent)) {
			t.Error("calendar type must not be offered when disabled")
		}
	})

	t.Run("offers calendar type only when enabled", func(t *testing.T) {
		prompt := buildSystemPrompt(activeTask(), now, "Asia/Jakarta", true)
		if !strings.Contains(prompt, string(ProposeCreateCalendarEvent)) {
			t.Error("calendar type must be offered when enabled")
		}
	})
}
