package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByActiveAndDate(t *testing.T) {
	in := []SponsorData{
		{ID: "old-inactive", Active: false, BeginDate: Dates{"2023-01-01"}},
		{ID: "new-active", Active: true, BeginDate: Dates{"2024-06-01"}},
		{ID: "no-date-active", Active: true},
		{ID: "multi-active", Active: true, BeginDate: Dates{"2024-07-01", "2022-01-01"}},
		{ID: "new-inactive", Active: false, BeginDate: Dates{"2024-01-01"}},
	}

	out := SortByActiveAndDate(in)

	ids := make([]string, 0, len(out))
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"multi-active", "new-active", "no-date-active", "new-inactive", "old-inactive"}, ids)
	assert.Equal(t, "old-inactive", in[0].ID, "input is not reordered")
}

func TestSortByActiveAndDate_StableOnTies(t *testing.T) {
	in := []SponsorData{
		{ID: "a", Active: true, BeginDate: Dates{"bad"}},
		{ID: "b", Active: true},
		{ID: "c", Active: true, BeginDate: Dates{"1970-01-01"}},
	}
	out := SortByActiveAndDate(in)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
}

func TestSortByActiveAndDate_Invariant(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		n := r.Intn(25)
		in := make([]SponsorData, 0, n)
		for j := 0; j < n; j++ {
			s := SponsorData{ID: fmt.Sprint(j), Active: r.Intn(2) == 0}
			if r.Intn(5) > 0 {
				s.BeginDate = Dates{fmt.Sprintf("20%02d-%02d-01", r.Intn(30), 1+r.Intn(12))}
			}
			in = append(in, s)
		}

		out := SortByActiveAndDate(in)
		require.Len(t, out, len(in))
		for k := 1; k < len(out); k++ {
			prev, cur := out[k-1], out[k]
			require.False(t, !prev.Active && cur.Active, "active after inactive")
			if prev.Active == cur.Active {
				require.False(t, cur.BeginDate.SortKey().After(prev.BeginDate.SortKey()), "dates increase")
			}
		}
	}
}

func TestFilterByStatus(t *testing.T) {
	in := []SponsorData{{ID: "a", Active: true}, {ID: "b"}, {ID: "c", Active: true}}

	assert.Len(t, FilterByStatus(in, StatusAll), 3)
	assert.Len(t, FilterByStatus(in, StatusActive), 2)
	inactive := FilterByStatus(in, StatusInactive)
	require.Len(t, inactive, 1)
	assert.Equal(t, "b", inactive[0].ID)
}

func TestParseStatusFilter(t *testing.T) {
	assert.Equal(t, StatusActive, ParseStatusFilter("Active"))
	assert.Equal(t, StatusInactive, ParseStatusFilter("Inactive"))
	assert.Equal(t, StatusAll, ParseStatusFilter(""))
	assert.Equal(t, StatusAll, ParseStatusFilter("whatever"))
}
