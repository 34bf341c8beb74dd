package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rohanthewiz/logger"
	"waypoint/apperr"
	"waypoint/providers"
)

// CompletionClient is the slice of the AI provider the planner needs.
type CompletionClient interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResult, error)
}

// Generator turns a plan's goal into an ordered task roadmap and
// materializes it atomically.
type Generator struct {
	AI        CompletionClient
	Store     Store
	Model     string
	MaxTokens int
}

// NewGenerator creates a roadmap generator.
func NewGenerator(ai CompletionClient, store Store, model string, maxTokens int) *Generator {
	return &Generator{AI: ai, Store: store, Model: model, MaxTokens: maxTokens}
}

// GenerateRequest carries the inputs for one roadmap generation.
type GenerateRequest struct {
	OwnerID        string
	PlanID         string
	Goal           string
	DurationMonths int
	CurrentStatus  string
}

const roadmapSystemPrompt = `You are Polaris, a goal-planning assistant.

Generate a full ordered roadmap for the user's goal.

Rules:
- Generate ALL tasks at once.
- Tasks must be sequential and logically ordered.
- Equal weight per task.
- No optional branches.
- No motivational language.
- No explanations outside JSON.
- Duration (months) only guides how many tasks to generate.
- Use the current status to understand the starting level.

Return STRICT JSON only, matching exactly:
{"tasks":[{"orderIndex":1,"title":"...","description":"..."}]}

- orderIndex: integer starting at 1, strictly increasing
- title: at least 5 characters
- description: at least 10 characters
- at least one task, no extra fields`

// Generate creates and commits the roadmap for a plan. Preconditions
// are checked before the AI call and re-checked atomically by the
// store at commit time, so duplicate invocations and client retries
// are safe: the second attempt fails with FailedPrecondition and the
// original task set is untouched.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) error {
	if req.OwnerID == "" {
		return apperr.New(apperr.Unauthenticated, "login required")
	}
	if req.PlanID == "" || strings.TrimSpace(req.Goal) == "" ||
		req.DurationMonths <= 0 || strings.TrimSpace(req.CurrentStatus) == "" {
		return apperr.New(apperr.InvalidArgument, "missing or invalid fields")
	}

	plan, err := g.Store.GetPlan(req.OwnerID, req.PlanID)
	if err != nil {
		return err
	}
	if plan.State != PlanGenerating {
		return apperr.New(apperr.FailedPrecondition, "roadmap already generated")
	}

	count, err := g.Store.TaskCount(req.OwnerID, req.PlanID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.New(apperr.FailedPrecondition, "tasks already exist")
	}

	userPrompt := fmt.Sprintf("Goal: %s\nDuration (months): %d\nCurrent Status: %s",
		req.Goal, req.DurationMonths, req.CurrentStatus)

	result, err := g.AI.Complete(ctx, providers.CompletionRequest{
		Model:     g.Model,
		System:    roadmapSystemPrompt,
		Messages:  []providers.ChatMessage{{Role: "user", Content: userPrompt}},
		MaxTokens: g.MaxTokens,
	})
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "ai request failed")
	}

	seeds, err := ParseRoadmap(result)
	if err != nil {
		logger.LogErr(err, "roadmap response rejected", "plan_id", req.PlanID)
		switch {
		case errors.Is(err, ErrIncomplete):
			return apperr.Wrap(apperr.Internal, err, "ai response incomplete")
		case errors.Is(err, ErrRefusal):
			return apperr.Wrap(apperr.Internal, err, "ai declined the request")
		}
		return apperr.Wrap(apperr.Internal, err, "invalid ai roadmap")
	}

	if err := g.Store.ActivateWithRoadmap(req.OwnerID, req.PlanID, seeds); err != nil {
		return err
	}

	logger.Info("Roadmap generated", "plan_id", req.PlanID, "tasks", len(seeds))
	return nil
}
