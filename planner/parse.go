package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"waypoint/providers"
)

// Parse failures are tagged so the generator can report distinct
// reasons without re-inspecting the raw model output.
var (
	ErrIncomplete = errors.New("ai response incomplete")
	ErrRefusal    = errors.New("ai declined the request")
	ErrEmpty      = errors.New("ai response empty")
	ErrMalformed  = errors.New("ai response malformed")
)

// Minimum content lengths a generated task must satisfy.
const (
	minTitleLen       = 5
	minDescriptionLen = 10
)

type roadmapPayload struct {
	Tasks []TaskSeed `json:"tasks"`
}

// ParseRoadmap validates a completion result into an ordered list of
// task seeds. The model's output is not trusted: truncated responses
// are rejected, the JSON must match the declared shape, every field is
// bounds-checked, and the final list is re-sorted by orderIndex.
func ParseRoadmap(result *providers.CompletionResult) ([]TaskSeed, error) {
	if result.StopReason == providers.StopReasonMaxTokens {
		return nil, ErrIncomplete
	}
	if result.StopReason == providers.StopReasonRefusal {
		return nil, ErrRefusal
	}

	text := stripCodeFences(result.Text)
	if text == "" {
		return nil, ErrEmpty
	}

	var payload roadmapPayload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(payload.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks", ErrMalformed)
	}

	seen := make(map[int]bool, len(payload.Tasks))
	for _, t := range payload.Tasks {
		switch {
		case t.OrderIndex < 1:
			return nil, fmt.Errorf("%w: orderIndex %d below 1", ErrMalformed, t.OrderIndex)
		case seen[t.OrderIndex]:
			return nil, fmt.Errorf("%w: duplicate orderIndex %d", ErrMalformed, t.OrderIndex)
		case len(strings.TrimSpace(t.Title)) < minTitleLen:
			return nil, fmt.Errorf("%w: task %d title too short", ErrMalformed, t.OrderIndex)
		case len(strings.TrimSpace(t.Description)) < minDescriptionLen:
			return nil, fmt.Errorf("%w: task %d description too short", ErrMalformed, t.OrderIndex)
		}
		seen[t.OrderIndex] = true
	}

	// The model's ordering is not trusted
	seeds := make([]TaskSeed, len(payload.Tasks))
	copy(seeds, payload.Tasks)
	sort.Slice(seeds, func(i, j int) bool {
		return seeds[i].OrderIndex < seeds[j].OrderIndex
	})

	return seeds, nil
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
