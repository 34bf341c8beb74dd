package planner

import (
	"errors"
	"testing"

	"waypoint/providers"
)

func result(text string) *providers.CompletionResult {
	return &providers.CompletionResult{Text: text, StopReason: "end_turn"}
}

func TestParseRoadmap(t *testing.T) {
	t.Run("valid roadmap", func(t *testing.T) {
		seeds, err := ParseRoadmap(result(`{"tasks":[
			{"orderIndex":1,"title":"Learn scales","description":"Practice major scales daily"},
			{"orderIndex":2,"title":"Learn chords","description":"Open chords and transitions"}
		]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seeds) != 2 {
			t.Fatalf("expected 2 seeds, got %d", len(seeds))
		}
		if seeds[0].Title != "Learn scales" {
			t.Errorf("unexpected first task: %+v", seeds[0])
		}
	})

	t.Run("re-sorts by orderIndex", func(t *testing.T) {
		seeds, err := ParseRoadmap(result(`{"tasks":[
			{"orderIndex":3,"title":"Third step","description":"The last of the three"},
			{"orderIndex":1,"title":"First step","description":"The first of the three"},
			{"orderIndex":2,"title":"Second step","description":"The middle of the three"}
		]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []int{1, 2, 3} {
			if seeds[i].OrderIndex != want {
				t.Errorf("position %d: expected orderIndex %d, got %d", i, want, seeds[i].OrderIndex)
			}
		}
	})

	t.Run("strips code fences", func(t *testing.T) {
		_, err := ParseRoadmap(result("```json\n{\"tasks\":[{\"orderIndex\":1,\"title\":\"Warm up well\",\"description\":\"Stretch for ten minutes\"}]}\n```"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("truncated response", func(t *testing.T) {
		_, err := ParseRoadmap(&providers.CompletionResult{
			Text:       `{"tasks":[{"orderIndex":1,`,
			StopReason: providers.StopReasonMaxTokens,
		})
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("expected ErrIncomplete, got %v", err)
		}
	})

	t.Run("refused response", func(t *testing.T) {
		_, err := ParseRoadmap(&providers.CompletionResult{
			StopReason: providers.StopReasonRefusal,
		})
		if !errors.Is(err, ErrRefusal) {
			t.Errorf("expected ErrRefusal, got %v", err)
		}
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := ParseRoadmap(result(""))
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty, got %v", err)
		}
	})

	malformed := []struct {
		name string
		text string
	}{
		{"not json", "here is your roadmap!"},
		{"no tasks", `{"tasks":[]}`},
		{"missing tasks key", `{"steps":[]}`},
		{"extra fields", `{"tasks":[],"notes":"hi"}`},
		{"orderIndex below 1", `{"tasks":[{"orderIndex":0,"title":"Valid title","description":"Valid description"}]}`},
		{"duplicate orderIndex", `{"tasks":[
			{"orderIndex":1,"title":"First title","description":"First description"},
			{"orderIndex":1,"title":"Other title","description":"Other description"}
		]}`},
		{"title too short", `{"tasks":[{"orderIndex":1,"title":"Hi","description":"Valid description"}]}`},
		{"description too short", `{"tasks":[{"orderIndex":1,"title":"Valid title","description":"short"}]}`},
	}

	for _, tt := range malformed {
		t.Run("malformed: "+tt.name, func(t *testing.T) {
			_, err := ParseRoadmap(result(tt.text))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}
