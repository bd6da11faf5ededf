package query

import (
	"context"
	"sync"
	"time"

	"github.com/halden/nextstep/internal/db"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/window"
)

// Snapshot is one published state of the filtered task list. Err is set when
// the store failed; observers show an error state instead of stale data.
type Snapshot struct {
	Filter   model.Filter
	Tasks    []model.Task
	Revision uint64
	Err      error
}

// Projection bridges the task store and the filter composer to observers.
// It re-runs the active query whenever the store or the filter changes,
// caches the last result, and fans it out: new subscribers immediately get
// the latest snapshot, existing ones get each new value. Filter changes use
// switch-to-latest semantics, canceling the in-flight evaluation before the
// next one starts.
type Projection struct {
	store    *db.DB
	composer *Composer
	clock    func() time.Time
	firstDay time.Weekday

	filterCh chan struct{}

	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
	last   *Snapshot
	gen    uint64
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Projection.
type Option func(*Projection)

// WithClock overrides the wall clock used for today/week/overdue queries.
func WithClock(clock func() time.Time) Option {
	return func(p *Projection) { p.clock = clock }
}

// WithFirstDayOfWeek sets the locale's week start for WEEK windows.
func WithFirstDayOfWeek(d time.Weekday) Option {
	return func(p *Projection) { p.firstDay = d }
}

// WithInitialKind sets the filter kind the projection starts on, before the
// first evaluation runs. Kinds whose selector is missing degrade to all.
func WithInitialKind(kind model.FilterKind) Option {
	return func(p *Projection) { p.composer.SetKind(kind) }
}

// NewProjection starts the projection loop over the given store. Close must
// be called to release the store subscription.
func NewProjection(store *db.DB, opts ...Option) *Projection {
	p := &Projection{
		store:    store,
		composer: NewComposer(),
		clock:    time.Now,
		firstDay: time.Monday,
		filterCh: make(chan struct{}, 1),
		subs:     make(map[int]chan Snapshot),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.loop(ctx)
	return p
}

// Close stops the loop and closes all subscriber channels.
func (p *Projection) Close() {
	p.cancel()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

// Subscribe registers an observer. The channel immediately carries the latest
// snapshot when one exists; cancel detaches the observer.
func (p *Projection) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	if p.last != nil {
		ch <- *p.last
	}

	id := p.nextID
	p.nextID++
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Latest returns the last published snapshot, if any.
func (p *Projection) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Snapshot{}, false
	}
	return *p.last, true
}

// Filter state setters. Each delegates to the composer and schedules a
// re-evaluation of the active query.

func (p *Projection) SetFilterKind(kind model.FilterKind) {
	p.composer.SetKind(kind)
	p.filterChanged()
}

func (p *Projection) SelectProject(id *string) {
	p.composer.SelectProject(id)
	p.filterChanged()
}

func (p *Projection) SelectLabel(name *string) {
	p.composer.SelectLabel(name)
	p.filterChanged()
}

func (p *Projection) SetSearchText(text string) {
	p.composer.SetSearchText(text)
	p.filterChanged()
}

// FilterKind returns the composer's active kind for display.
func (p *Projection) FilterKind() model.FilterKind {
	return p.composer.Kind()
}

func (p *Projection) filterChanged() {
	select {
	case p.filterCh <- struct{}{}:
	default:
	}
}

// loop serializes re-evaluations: each trigger cancels the previous
// evaluation's context before launching the next one.
func (p *Projection) loop(ctx context.Context) {
	defer close(p.done)

	changes, cancelSub := p.store.Changes()
	defer cancelSub()

	evalCancel := func() {}
	trigger := func() {
		evalCancel()
		ectx, cancel := context.WithCancel(ctx)
		evalCancel = cancel

		p.mu.Lock()
		p.gen++
		gen := p.gen
		p.mu.Unlock()

		go p.evaluate(ectx, gen, p.composer.Current(), p.store.Revision())
	}

	trigger()
	for {
		select {
		case <-ctx.Done():
			evalCancel()
			return
		case _, ok := <-changes:
			if !ok {
				evalCancel()
				return
			}
			trigger()
		case <-p.filterCh:
			trigger()
		}
	}
}

// evaluate runs the query for the filter and publishes the result, unless a
// newer evaluation has superseded this one.
func (p *Projection) evaluate(ctx context.Context, gen uint64, f model.Filter, revision uint64) {
	tasks, err := p.runQuery(ctx, f)
	if ctx.Err() != nil {
		return // superseded or shut down; drop silently
	}
	p.publish(gen, Snapshot{Filter: f, Tasks: tasks, Revision: revision, Err: err})
}

// runQuery dispatches the filter to the store query it selects. Overdue and
// window filters read the clock here, on every evaluation, never at
// subscription time.
func (p *Projection) runQuery(ctx context.Context, f model.Filter) ([]model.Task, error) {
	now := p.clock()
	switch f.Kind {
	case model.FilterByProject:
		return p.store.TasksByProject(ctx, f.ProjectID)
	case model.FilterByLabel:
		return p.store.TasksByLabel(ctx, f.Label)
	case model.FilterToday:
		return p.store.TasksInWindow(ctx, window.Today(now))
	case model.FilterWeek:
		return p.store.TasksInWindow(ctx, window.Week(now, p.firstDay))
	case model.FilterOverdue:
		return p.store.OverdueTasks(ctx, now)
	case model.FilterSearch:
		return p.store.SearchTasks(ctx, f.Query)
	default:
		return p.store.Tasks(ctx)
	}
}

// publish caches the snapshot and fans it out. Subscriber channels hold one
// value; a slow observer has its pending snapshot replaced rather than
// blocking the hub.
func (p *Projection) publish(gen uint64, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return
	}
	p.last = &snap

	for _, ch := range p.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
