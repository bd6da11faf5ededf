package query

import (
	"context"
	"time"

	"github.com/halden/nextstep/internal/model"
)

// Summary is the whole-store task breakdown shown by the statistics view:
// totals, the overdue count against a given instant, and the completion rate.
type Summary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// Summarize computes the summary over a task list. Overdue follows the task
// rule: completed tasks are never overdue.
func Summarize(tasks []model.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if tasks[i].IsOverdue(now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}
	return s
}

// Summary computes the breakdown over every task in the store.
func (a *Aggregator) Summary(ctx context.Context, now time.Time) (Summary, error) {
	tasks, err := a.store.Tasks(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(tasks, now), nil
}
