package services_test

import (
	"reflect"
	"testing"

	"ruletapromo/internal/domain"
	"ruletapromo/internal/services"
)

func sampleRows() []domain.Store {
	return []domain.Store{
		{ID: "a", Name: "zeta", CreatedAt: "2026-01-01T00:00:00Z", IsActive: true},
		{ID: "b", Name: "Alfa", CreatedAt: "2026-01-03T00:00:00Z", IsActive: true},
		{ID: "c", Name: "alfa norte", CreatedAt: "2026-01-02T00:00:00Z", IsActive: true},
	}
}

func ids(rows []domain.Store) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestSortRowsRecent(t *testing.T) {
	rows := sampleRows()
	got := services.SortRows(rows, services.SortRecent)
	want := []string{"b", "c", "a"} // newest first
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	// derived, never in place
	if rows[0].ID != "a" {
		t.Fatal("input mutated")
	}
}

func TestSortRowsAlpha(t *testing.T) {
	got := services.SortRows(sampleRows(), services.SortAlpha)
	want := []string{"b", "c", "a"} // Alfa, alfa norte, zeta
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestSortRowsAlphaCollatesAccentedInitials(t *testing.T) {
	rows := []domain.Store{
		{ID: "z", Name: "zeta", IsActive: true},
		{ID: "an", Name: "Ángel Ferretería", IsActive: true},
		{ID: "b", Name: "bravo", IsActive: true},
	}
	got := services.SortRows(rows, services.SortAlpha)
	want := []string{"an", "b", "z"} // Ángel sorts with the a's, not after z
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestSortRowsIdempotent(t *testing.T) {
	for _, mode := range []services.SortMode{services.SortRecent, services.SortAlpha} {
		once := services.SortRows(sampleRows(), mode)
		twice := services.SortRows(once, mode)
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Fatalf("%s not idempotent: %v vs %v", mode, ids(once), ids(twice))
		}
	}
}

func TestParseSortMode(t *testing.T) {
	if services.ParseSortMode("alpha") != services.SortAlpha {
		t.Fatal("alpha")
	}
	if services.ParseSortMode("") != services.SortRecent {
		t.Fatal("default")
	}
	if services.ParseSortMode("bogus") != services.SortRecent {
		t.Fatal("unknown falls back to recent")
	}
}

func TestApplyCreatePrepends(t *testing.T) {
	rows := sampleRows()
	got := services.ApplyCreate(rows, domain.Store{ID: "new"})
	if got[0].ID != "new" || len(got) != 4 {
		t.Fatalf("got %v", ids(got))
	}
	if len(rows) != 3 {
		t.Fatal("input mutated")
	}
}

func TestApplyUpdateRecomputesCount(t *testing.T) {
	rows := sampleRows()
	prizes := []domain.PrizeEdit{
		{ID: "p1", Nombre: "Abanico", StockDisponible: 4},
		{ID: "p2", Nombre: "Frisbee", StockDisponible: 2},
	}
	got := services.ApplyUpdate(rows, "b", "Alfa Dos", prizes, "2026-02-01T00:00:00Z")
	for _, r := range got {
		if r.ID != "b" {
			continue
		}
		if r.Name != "Alfa Dos" || r.AvailablePrizesCount != 6 || r.UpdatedAt != "2026-02-01T00:00:00Z" {
			t.Fatalf("bad update: %+v", r)
		}
		if len(r.Prizes) != 2 {
			t.Fatalf("prize list not attached: %+v", r)
		}
	}
	if rows[1].Name != "Alfa" {
		t.Fatal("input mutated")
	}
}

func TestApplyDeactivateKeepsRecord(t *testing.T) {
	got := services.ApplyDeactivate(sampleRows(), "a")
	if len(got) != 3 {
		t.Fatal("record must not be deleted")
	}
	for _, r := range got {
		if r.ID == "a" && r.IsActive {
			t.Fatal("flag not flipped")
		}
	}
	if len(services.FilterActive(got)) != 2 {
		t.Fatal("active-only view must drop the row")
	}
}
