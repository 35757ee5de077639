package services

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ruletapromo/internal/domain"
)

// SortMode selects one of the two total orders over the admin rows.
type SortMode string

const (
	SortRecent SortMode = "recent" // descending creation timestamp
	SortAlpha  SortMode = "alpha"  // case-aware name order
)

// ParseSortMode falls back to SortRecent for anything unknown.
func ParseSortMode(s string) SortMode {
	if SortMode(s) == SortAlpha {
		return SortAlpha
	}
	return SortRecent
}

// The reducers below are pure: they derive a new slice from the current
// rows and a mutation result, so reconciliation can be tested without any
// network timing.

// ApplyCreate prepends the freshly created row.
func ApplyCreate(rows []domain.Store, row domain.Store) []domain.Store {
	out := make([]domain.Store, 0, len(rows)+1)
	out = append(out, row)
	return append(out, rows...)
}

// ApplyUpdate replaces the row's name and prize list and recomputes its
// count as the sum of available stocks.
func ApplyUpdate(rows []domain.Store, id, name string, prizes []domain.PrizeEdit, updatedAt string) []domain.Store {
	out := make([]domain.Store, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		total := 0
		for _, p := range prizes {
			total += p.StockDisponible
		}
		out[i].Name = name
		out[i].UpdatedAt = updatedAt
		out[i].Prizes = prizes
		out[i].AvailablePrizesCount = total
	}
	return out
}

// ApplyDeactivate flips the row's active flag. The record stays in the
// slice; active-only views filter it out.
func ApplyDeactivate(rows []domain.Store, id string) []domain.Store {
	out := make([]domain.Store, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].ID == id {
			out[i].IsActive = false
		}
	}
	return out
}

// FilterActive keeps only active rows.
func FilterActive(rows []domain.Store) []domain.Store {
	out := make([]domain.Store, 0, len(rows))
	for _, r := range rows {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// SortRows derives a sorted copy; the input is never mutated in place.
func SortRows(rows []domain.Store, mode SortMode) []domain.Store {
	out := make([]domain.Store, len(rows))
	copy(out, rows)
	if mode == SortAlpha {
		// Spanish collation puts accented initials among the letters.
		// Collators buffer internally and are not safe to share, so each
		// sort gets its own.
		col := collate.New(language.Spanish)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func createdAt(s domain.Store) time.Time {
	t, err := time.Parse(time.RFC3339, s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
