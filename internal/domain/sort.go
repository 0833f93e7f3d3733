package domain

import "sort"

// StatusFilter is the active-tab selection in the admin UI.
type StatusFilter string

const (
	StatusAll      StatusFilter = "All"
	StatusActive   StatusFilter = "Active"
	StatusInactive StatusFilter = "Inactive"
)

// ParseStatusFilter maps a tab name to a filter; unknown and empty values mean All.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusActive, StatusInactive:
		return StatusFilter(s)
	default:
		return StatusAll
	}
}

// Match reports whether a record belongs in the tab.
func (f StatusFilter) Match(s SponsorData) bool {
	switch f {
	case StatusActive:
		return s.Active
	case StatusInactive:
		return !s.Active
	default:
		return true
	}
}

// SortByActiveAndDate returns a sorted copy: active records first, then newest
// begin date first within each partition. Ties keep their input order.
func SortByActiveAndDate(items []SponsorData) []SponsorData {
	out := append([]SponsorData(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].BeginDate.SortKey().After(out[j].BeginDate.SortKey())
	})
	return out
}

// FilterByStatus returns the records in the tab, preserving order.
func FilterByStatus(items []SponsorData, f StatusFilter) []SponsorData {
	out := make([]SponsorData, 0, len(items))
	for _, s := range items {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterByType returns the records of one sponsor type, preserving order.
func FilterByType(items []SponsorData, t SponsorType) []SponsorData {
	out := make([]SponsorData, 0, len(items))
	for _, s := range items {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
