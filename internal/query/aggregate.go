package query

import (
	"context"
	"sync"
	"time"

	"github.com/halden/nextstep/internal/db"
	"github.com/halden/nextstep/internal/window"
)

// Counts is one published count-by-day state for a window. Keys are the
// local-midnight start of each day, as epoch milliseconds; days without due
// tasks are absent.
type Counts struct {
	Window window.Window
	ByDay  map[int64]int
	Err    error
}

// Aggregator computes per-day due-task counts for calendar views. Results are
// cached per window and keyed by the store revision, so repeated reads
// between mutations cost nothing.
type Aggregator struct {
	store *db.DB

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	start int64
	end   int64
}

type cacheEntry struct {
	revision uint64
	counts   map[int64]int
}

// NewAggregator creates an aggregator over the store.
func NewAggregator(store *db.DB) *Aggregator {
	return &Aggregator{store: store, cache: make(map[cacheKey]cacheEntry)}
}

// CountByDay groups the window's due tasks by their local calendar day and
// returns the count per day. Single pass over the window's tasks.
func (a *Aggregator) CountByDay(ctx context.Context, w window.Window) (map[int64]int, error) {
	key := cacheKey{start: w.StartMillis(), end: w.EndMillis()}
	revision := a.store.Revision()

	a.mu.Lock()
	if entry, ok := a.cache[key]; ok && entry.revision == revision {
		counts := copyCounts(entry.counts)
		a.mu.Unlock()
		return counts, nil
	}
	a.mu.Unlock()

	tasks, err := a.store.TasksInWindow(ctx, w)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		day := window.Midnight(t.DueDate.In(w.Start.Location()))
		counts[day.UnixMilli()]++
	}

	a.mu.Lock()
	a.cache[key] = cacheEntry{revision: revision, counts: copyCounts(counts)}
	a.mu.Unlock()

	return counts, nil
}

// Watch publishes the window's counts now and again after every store change.
// The channel holds the latest value; cancel stops the watcher.
func (a *Aggregator) Watch(w window.Window) (<-chan Counts, func()) {
	out := make(chan Counts, 1)
	changes, cancelSub := a.store.Changes()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer close(out)
		publish := func() {
			counts, err := a.CountByDay(ctx, w)
			if ctx.Err() != nil {
				return
			}
			snap := Counts{Window: w, ByDay: counts, Err: err}
			select {
			case out <- snap:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- snap:
				default:
				}
			}
		}

		publish()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				publish()
			}
		}
	}()

	return out, func() {
		cancel()
		cancelSub()
	}
}

func copyCounts(m map[int64]int) map[int64]int {
	out := make(map[int64]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DayOf normalizes an instant to its local-midnight key, matching the keys in
// Counts.ByDay.
func DayOf(t time.Time) int64 {
	return window.Midnight(t).UnixMilli()
}
