package domain

// Stats counts records in the in-memory list.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// ComputeStats derives stats with a full scan. Used on load only.
func ComputeStats(items []SponsorData) Stats {
	var s Stats
	for _, item := range items {
		s.Total++
		if item.Active {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s
}

// Update applies one mutation incrementally.
//
//   - add:    next set, isAdd
//   - remove: prev set, isRemove
//   - edit:   both set, neither flag; moves one unit between active and
//     inactive when the flag changed
func (s *Stats) Update(next *SponsorData, isAdd bool, prev *SponsorData, isRemove bool) {
	switch {
	case isAdd && next != nil:
		s.Total++
		s.bucket(next.Active, 1)
	case isRemove && prev != nil:
		s.Total--
		s.bucket(prev.Active, -1)
	case next != nil && prev != nil && next.Active != prev.Active:
		s.bucket(prev.Active, -1)
		s.bucket(next.Active, 1)
	}
}

func (s *Stats) bucket(active bool, delta int) {
	if active {
		s.Active += delta
	} else {
		s.Inactive += delta
	}
}
