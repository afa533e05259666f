package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"

	"github.com/shopspring/decimal"
)

// GoalGroups is the goals page: active goals first, completed ones below.
type GoalGroups struct {
	Summary   core.GoalsSummary `json:"summary"`
	Active    []core.GoalView   `json:"active"`
	Completed []core.GoalView   `json:"completed"`
}

func goalViewsOf(goals []core.Goal) ([]core.GoalView, error) {
	views := make([]core.GoalView, 0, len(goals))
	for _, g := range goals {
		p, err := core.GoalProgress(g)
		if err != nil {
			return nil, err
		}
		views = append(views, core.GoalView{Goal: g, Progress: p})
	}
	return views, nil
}

// GoalTracker manages savings goals and contributions toward them.
type GoalTracker struct {
	goals    store.GoalStore
	notifier *Notifier
	logger   *log.Logger
}

func NewGoalTracker(goals store.GoalStore, notifier *Notifier, logger *log.Logger) *GoalTracker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &GoalTracker{goals: goals, notifier: notifier, logger: logger.WithComponent(log.ComponentGoal)}
}

// List returns every goal with its progress, latest target date first.
func (g *GoalTracker) List(ctx context.Context) ([]core.GoalView, error) {
	goals, err := g.goals.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	return goalViewsOf(goals)
}

// Groups splits the goals into active and completed with the summary counts.
func (g *GoalTracker) Groups(ctx context.Context) (GoalGroups, error) {
	goals, err := g.goals.ListGoals(ctx)
	if err != nil {
		return GoalGroups{}, fmt.Errorf("load goals: %w", err)
	}
	active, completed := core.SplitGoals(goals)
	activeViews, err := goalViewsOf(active)
	if err != nil {
		return GoalGroups{}, err
	}
	completedViews, err := goalViewsOf(completed)
	if err != nil {
		return GoalGroups{}, err
	}
	return GoalGroups{
		Summary: core.GoalsSummary{
			Active:     len(active),
			Completed:  len(completed),
			TotalSaved: core.TotalSaved(goals),
		},
		Active:    activeViews,
		Completed: completedViews,
	}, nil
}

// Summary counts active and completed goals and totals what has been saved.
func (g *GoalTracker) Summary(ctx context.Context) (core.GoalsSummary, error) {
	goals, err := g.goals.ListGoals(ctx)
	if err != nil {
		return core.GoalsSummary{}, fmt.Errorf("load goals: %w", err)
	}
	active, completed := core.SplitGoals(goals)
	return core.GoalsSummary{
		Active:     len(active),
		Completed:  len(completed),
		TotalSaved: core.TotalSaved(goals),
	}, nil
}

func (g *GoalTracker) Get(ctx context.Context, id string) (core.GoalView, error) {
	goal, err := g.goals.GetGoal(ctx, id)
	if err != nil {
		return core.GoalView{}, err
	}
	p, err := core.GoalProgress(goal)
	if err != nil {
		return core.GoalView{}, err
	}
	return core.GoalView{Goal: goal, Progress: p}, nil
}

// Create stores a new goal. New goals always start empty.
func (g *GoalTracker) Create(ctx context.Context, goal core.Goal) (core.Goal, error) {
	goal.CurrentAmount = decimal.Zero
	goal.IsCompleted = false
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := g.goals.CreateGoal(ctx, goal)
	if err != nil {
		return core.Goal{}, err
	}
	g.logger.InfoContext(ctx, "Goal created",
		log.FieldEntityID, created.ID,
		log.FieldAmount, created.TargetAmount.StringFixed(2))
	g.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.GoalCreated, created.ID, "", ""))
	return created, nil
}

// Update edits title, description, target amount and target date. Progress
// and the completion flag are left as stored; only contributions move them.
func (g *GoalTracker) Update(ctx context.Context, goal core.Goal) (core.Goal, error) {
	existing, err := g.goals.GetGoal(ctx, goal.ID)
	if err != nil {
		return core.Goal{}, err
	}
	goal.CurrentAmount = existing.CurrentAmount
	goal.IsCompleted = existing.IsCompleted
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}

	updated, err := g.goals.UpdateGoal(ctx, goal)
	if err != nil {
		return core.Goal{}, err
	}
	g.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.GoalUpdated, updated.ID, "", ""))
	return updated, nil
}

// Contribute adds amount to the goal's current amount and marks it completed
// once the target is reached. The write is conditional on the amount that was
// read, so concurrent contributions are retried instead of lost.
func (g *GoalTracker) Contribute(ctx context.Context, id string, amount decimal.Decimal) (core.Goal, error) {
	if !amount.IsPositive() {
		return core.Goal{}, fmt.Errorf("contribution must be positive: %w", core.ErrInvalidArgument)
	}
	amount = amount.Round(2)

	var updated core.Goal
	for attempt := 1; ; attempt++ {
		goal, err := g.goals.GetGoal(ctx, id)
		if err != nil {
			return core.Goal{}, err
		}
		next, err := core.ApplyContribution(goal, amount)
		if err != nil {
			return core.Goal{}, err
		}
		updated, err = g.goals.UpdateGoalProgress(ctx, id, goal.CurrentAmount, next.CurrentAmount, next.IsCompleted)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrStaleProgress) {
			return core.Goal{}, err
		}
		// Another contribution landed between the read and the write.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Goal{}, ctxErr
		}
		g.logger.DebugContext(ctx, "Goal progress changed, retrying contribution",
			log.FieldEntityID, id, "attempt", attempt)
	}

	g.logger.InfoContext(ctx, "Contribution recorded",
		log.FieldEntityID, id,
		log.FieldAmount, amount.StringFixed(2),
		"completed", updated.IsCompleted)
	g.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.GoalContributed, id, "", ""))
	return updated, nil
}

func (g *GoalTracker) Delete(ctx context.Context, id string) error {
	if err := g.goals.DeleteGoal(ctx, id); err != nil {
		return err
	}
	g.notifier.notify(ctx, amqp.NewLedgerEvent(amqp.GoalDeleted, id, "", ""))
	return nil
}
