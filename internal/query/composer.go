// Package query derives filtered, time-windowed task views from the store and
// republishes them to observers as the filter or the underlying data change.
package query

import (
	"sync"

	"github.com/halden/nextstep/internal/model"
)

// Composer tracks the active filter kind plus the project, label and search
// selectors. Exactly one kind is active at a time; selector values are
// retained when inert so switching back to their kind restores them.
type Composer struct {
	mu        sync.Mutex
	kind      model.FilterKind
	projectID *string
	label     *string
	search    string
}

// NewComposer starts at ALL with no selections.
func NewComposer() *Composer {
	return &Composer{kind: model.FilterAll}
}

// SetKind switches the active filter kind without touching any selector.
func (c *Composer) SetKind(kind model.FilterKind) model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = kind
	return c.resolveLocked()
}

// SelectProject sets the project selector. A non-nil id forces the kind to
// BY_PROJECT; nil clears the selector and leaves the kind alone.
func (c *Composer) SelectProject(id *string) model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectID = id
	if id != nil {
		c.kind = model.FilterByProject
	}
	return c.resolveLocked()
}

// SelectLabel sets the label selector. A non-nil name forces the kind to
// BY_LABEL.
func (c *Composer) SelectLabel(name *string) model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.label = name
	if name != nil {
		c.kind = model.FilterByLabel
	}
	return c.resolveLocked()
}

// SetSearchText sets the search selector. Non-blank text forces the kind to
// SEARCH; blank text keeps the current kind.
func (c *Composer) SetSearchText(text string) model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = text
	if !isBlank(text) {
		c.kind = model.FilterSearch
	}
	return c.resolveLocked()
}

// Current resolves the state into the filter to run.
func (c *Composer) Current() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked()
}

// Kind returns the active filter kind, which may differ from the resolved
// filter when its selector is missing.
func (c *Composer) Kind() model.FilterKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

// resolveLocked maps the state to the query that should run. A kind whose
// selector is missing degrades to ALL, matching the view model this replaces.
func (c *Composer) resolveLocked() model.Filter {
	switch c.kind {
	case model.FilterByProject:
		if c.projectID == nil {
			return model.All()
		}
		return model.ByProject(*c.projectID)
	case model.FilterByLabel:
		if c.label == nil {
			return model.All()
		}
		return model.ByLabel(*c.label)
	case model.FilterToday:
		return model.Today()
	case model.FilterWeek:
		return model.Week()
	case model.FilterOverdue:
		return model.Overdue()
	case model.FilterSearch:
		if isBlank(c.search) {
			return model.All()
		}
		return model.Search(c.search)
	default:
		return model.All()
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
