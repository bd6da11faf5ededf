package model

import "fmt"

// FilterKind names the seven mutually exclusive task-list view modes.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterByProject
	FilterByLabel
	FilterToday
	FilterWeek
	FilterOverdue
	FilterSearch
)

// String returns the display name for a filter kind
func (k FilterKind) String() string {
	switch k {
	case FilterByProject:
		return "project"
	case FilterByLabel:
		return "label"
	case FilterToday:
		return "today"
	case FilterWeek:
		return "week"
	case FilterOverdue:
		return "overdue"
	case FilterSearch:
		return "search"
	default:
		return "all"
	}
}

// ParseFilterKind maps a filter kind name back to its value. Unknown names
// are an error so a config typo surfaces at startup instead of silently
// showing all tasks.
func ParseFilterKind(s string) (FilterKind, error) {
	switch s {
	case "all":
		return FilterAll, nil
	case "project":
		return FilterByProject, nil
	case "label":
		return FilterByLabel, nil
	case "today":
		return FilterToday, nil
	case "week":
		return FilterWeek, nil
	case "overdue":
		return FilterOverdue, nil
	case "search":
		return FilterSearch, nil
	default:
		return FilterAll, fmt.Errorf("%w: unknown filter kind %q", ErrInvalidArgument, s)
	}
}

// Filter is the resolved query selection: one kind plus only the selector
// values that kind needs. Construct through the All/ByProject/... helpers so
// a filter never carries fields its kind ignores.
type Filter struct {
	Kind      FilterKind
	ProjectID string // FilterByProject only
	Label     string // FilterByLabel only
	Query     string // FilterSearch only
}

func All() Filter                   { return Filter{Kind: FilterAll} }
func ByProject(id string) Filter    { return Filter{Kind: FilterByProject, ProjectID: id} }
func ByLabel(name string) Filter    { return Filter{Kind: FilterByLabel, Label: name} }
func Today() Filter                 { return Filter{Kind: FilterToday} }
func Week() Filter                  { return Filter{Kind: FilterWeek} }
func Overdue() Filter               { return Filter{Kind: FilterOverdue} }
func Search(query string) Filter    { return Filter{Kind: FilterSearch, Query: query} }

// Equal reports whether two filters would issue the same query.
func (f Filter) Equal(other Filter) bool {
	return f == other
}
