package domain

// Identified is anything keyed by a record id.
type Identified interface {
	RecordID() string
}

// RecordID returns the view model's identifier.
func (s SponsorData) RecordID() string { return s.ID }

// KeepStrategy picks the representative of a group of records sharing an id.
// The zero value keeps the first occurrence.
type KeepStrategy[T any] struct {
	last    bool
	resolve func(duplicates []T) T
}

// KeepFirst keeps the earliest occurrence of each id.
func KeepFirst[T any]() KeepStrategy[T] { return KeepStrategy[T]{} }

// KeepLast keeps the latest occurrence of each id.
func KeepLast[T any]() KeepStrategy[T] { return KeepStrategy[T]{last: true} }

// Resolve lets fn choose from the full duplicate group.
func Resolve[T any](fn func(duplicates []T) T) KeepStrategy[T] {
	return KeepStrategy[T]{resolve: fn}
}

func (s KeepStrategy[T]) pick(group []T) T {
	switch {
	case len(group) == 1:
		return group[0]
	case s.resolve != nil:
		return s.resolve(group)
	case s.last:
		return group[len(group)-1]
	default:
		return group[0]
	}
}

// RemoveDuplicates returns one record per id, in order of first appearance.
// When no id repeats, items is returned unchanged.
func RemoveDuplicates[T Identified](items []T, strategy KeepStrategy[T]) []T {
	groups := make(map[string][]T, len(items))
	order := make([]string, 0, len(items))
	duplicated := false

	for _, item := range items {
		id := item.RecordID()
		if _, seen := groups[id]; seen {
			duplicated = true
		} else {
			order = append(order, id)
		}
		groups[id] = append(groups[id], item)
	}

	if !duplicated {
		return items
	}

	out := make([]T, 0, len(order))
	for _, id := range order {
		out = append(out, strategy.pick(groups[id]))
	}
	return out
}
