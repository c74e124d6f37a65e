package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s := New(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func countEmissions(t *testing.T, s *Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB.Model(&domain.Emission{}).Count(&n).Error)
	return n
}

func rawInput(projectID string) SaveEmissionInput {
	return SaveEmissionInput{
		ProjectID:     projectID,
		Methodology:   "MANUAL",
		QuantityTCO2e: 12.5,
		RecordDate:    "2026-03-31",
		Notes:         "meter reading",
		Inputs:        map[string]interface{}{"kwh": 25000},
		Outputs:       map[string]interface{}{"tco2e": 12.5},
	}
}

func TestEnsureSchema_RepeatedAndConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, New(s.DB).EnsureSchema(ctx))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.EnsureSchema(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, s.DB.Migrator().HasTable(&domain.Project{}))
	assert.True(t, s.DB.Migrator().HasTable(&domain.Emission{}))
}

func TestCreateProject(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreateProject(context.Background(), "  EV-01 ", "Depot chargers")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ProjectID)
	assert.Equal(t, "EV-01", p.ProjectCode)
	assert.Equal(t, domain.ProjectStatusActive, p.Status)
	assert.Equal(t, time.UTC, p.UpdatedAt.Location())

	other, err := s.CreateProject(context.Background(), "EV-01", "Depot chargers")
	require.NoError(t, err)
	assert.NotEqual(t, p.ProjectID, other.ProjectID)
}

func TestListActiveProjects_OrderLabelsAndArchive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.DB.Create(&domain.Project{ProjectID: "p-old", ProjectCode: "H2-7", UpdatedAt: base}).Error)
	require.NoError(t, s.DB.Create(&domain.Project{ProjectID: "p-mid", ProjectCode: "EV-01", ProjectName: "Depot", UpdatedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, s.DB.Create(&domain.Project{ProjectID: "p-new", ProjectName: "Recycling yard", UpdatedAt: base.Add(2 * time.Hour)}).Error)
	require.NoError(t, s.DB.Exec(
		"INSERT INTO projects (project_id, project_code, project_name, status, updated_at) VALUES (?, ?, ?, NULL, ?)",
		"p-legacy", "", "", base.Add(-time.Hour),
	).Error)

	got, err := s.ListActiveProjects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"p-new", "p-mid", "p-old", "p-legacy"},
		[]string{got[0].ProjectID, got[1].ProjectID, got[2].ProjectID, got[3].ProjectID})
	assert.Equal(t, "Recycling yard", got[0].Label)
	assert.Equal(t, "EV-01 — Depot", got[1].Label)
	assert.Equal(t, "H2-7", got[2].Label)
	assert.Equal(t, "p-legacy", got[3].Label)

	archived, err := s.ArchiveProject(ctx, "p-mid")
	require.NoError(t, err)
	assert.True(t, archived.Archived())

	got, err = s.ListActiveProjects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, p := range got {
		assert.NotEqual(t, "p-mid", p.ProjectID)
	}
}

func TestArchiveProject_Unknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ArchiveProject(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrReference)
}

func TestSaveEmission_UnknownProjectWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "EV-01", "Depot")
	require.NoError(t, err)
	_, err = s.SaveEmission(ctx, rawInput(p.ProjectID))
	require.NoError(t, err)
	before := countEmissions(t, s)

	_, err = s.SaveEmission(ctx, rawInput("does-not-exist"))
	require.Error(t, err)
	var ref *domain.ReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "does-not-exist", ref.ProjectID)
	assert.Equal(t, before, countEmissions(t, s))
}

func TestSaveEmission_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "EV-01", "")
	require.NoError(t, err)

	bad := []func(*SaveEmissionInput){
		func(in *SaveEmissionInput) { in.RecordDate = "31/03/2026" },
		func(in *SaveEmissionInput) { in.Methodology = " " },
		func(in *SaveEmissionInput) { in.ProjectID = "" },
		func(in *SaveEmissionInput) { in.Inputs = map[string]interface{}{"f": func() {}} },
	}
	for i, edit := range bad {
		in := rawInput(p.ProjectID)
		edit(&in)
		_, err := s.SaveEmission(ctx, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "case %d", i)
	}
	assert.Equal(t, int64(0), countEmissions(t, s))
}

func TestSaveEmission_ArchivedProjectAccepted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "OLD", "Closed site")
	require.NoError(t, err)
	_, err = s.ArchiveProject(ctx, p.ProjectID)
	require.NoError(t, err)

	id, err := s.SaveEmission(ctx, rawInput(p.ProjectID))
	require.NoError(t, err)
	e, err := s.GetEmission(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, e.ProjectID)
	assert.Equal(t, p.ProjectID, *e.ProjectID)
}

func TestSaveEmission_RawRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "EV-01", "Depot")
	require.NoError(t, err)

	id, err := s.SaveEmission(ctx, rawInput(p.ProjectID))
	require.NoError(t, err)
	e, err := s.GetEmission(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, e.EmissionID)
	assert.Equal(t, "MANUAL", e.Methodology)
	assert.Equal(t, "2026-03-31", e.RecordDate)
	assert.Equal(t, 12.5, e.QuantityTCO2e)
	assert.JSONEq(t, `{"kwh":25000}`, string(e.Inputs))
	assert.JSONEq(t, `{"tco2e":12.5}`, string(e.Outputs))
	assert.WithinDuration(t, time.Now().UTC(), e.CreatedAt, time.Minute)

	_, err = s.GetEmission(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveCalculation_TypedRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "H2-7", "Electrolyser")
	require.NoError(t, err)

	r, err := methodology.CalculateAM0124(methodology.AM0124Input{
		H2TonsYear: 120, KWhPerKg: 55, GridEFKgPerKWh: 0.95, RenewableFractionPct: 80,
		BaselineMode: methodology.BaselineGridEquivalent, LeakagePct: 1, Years: 5, AnnualDecarbPct: 2,
	})
	require.NoError(t, err)

	id, err := s.SaveCalculation(ctx, p.ProjectID, "2026-06-30", "", r)
	require.NoError(t, err)
	e, err := s.GetEmission(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, methodology.CodeAM0124, e.Methodology)
	assert.Equal(t, r.QuantityTCO2e(), e.QuantityTCO2e)
	assert.Equal(t, r.DefaultNotes(), e.Notes)

	decoded, err := Decode(e)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

type foreignKeyRow struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func TestEnsureSchema_EmissionsReferenceProjects(t *testing.T) {
	s := newTestStore(t)

	var emissionFKs []foreignKeyRow
	require.NoError(t, s.DB.Raw("PRAGMA foreign_key_list('emissions')").Scan(&emissionFKs).Error)
	require.Len(t, emissionFKs, 1)
	assert.Equal(t, "projects", emissionFKs[0].Table)
	assert.Equal(t, "project_id", emissionFKs[0].From)
	assert.Equal(t, "project_id", emissionFKs[0].To)
	assert.Equal(t, "SET NULL", emissionFKs[0].OnDelete)

	var projectFKs []foreignKeyRow
	require.NoError(t, s.DB.Raw("PRAGMA foreign_key_list('projects')").Scan(&projectFKs).Error)
	assert.Empty(t, projectFKs)

	_, err := s.CreateProject(context.Background(), "FK-01", "Schema check")
	assert.NoError(t, err)
}

func TestEmissionProjectSetNullOnDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "TMP", "")
	require.NoError(t, err)
	id, err := s.SaveEmission(ctx, rawInput(p.ProjectID))
	require.NoError(t, err)

	require.NoError(t, s.DB.Exec("DELETE FROM projects WHERE project_id = ?", p.ProjectID).Error)

	e, err := s.GetEmission(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, e.ProjectID)
}

func TestSaveEmission_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "EV-01", "Depot")
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := rawInput(p.ProjectID)
			in.Notes = fmt.Sprintf("writer %d", i)
			id, err := s.SaveEmission(ctx, in)
			if assert.NoError(t, err) {
				ids <- id
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, int64(n), countEmissions(t, s))
}

func TestListEmissions_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, err := s.CreateProject(ctx, "A", "")
	require.NoError(t, err)
	b, err := s.CreateProject(ctx, "B", "")
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []domain.Emission{
		{EmissionID: "e1", ProjectID: &a.ProjectID, Methodology: "VM0038", RecordDate: "2026-01-15", QuantityTCO2e: 10, CreatedAt: base},
		{EmissionID: "e2", ProjectID: &a.ProjectID, Methodology: "AM0124", RecordDate: "2026-02-15", QuantityTCO2e: 20, CreatedAt: base.Add(time.Minute)},
		{EmissionID: "e3", ProjectID: &b.ProjectID, Methodology: "VM0038", RecordDate: "2026-03-15", QuantityTCO2e: 5, CreatedAt: base.Add(2 * time.Minute)},
		{EmissionID: "e4", ProjectID: &a.ProjectID, Methodology: "VM0038", RecordDate: "2026-04-15", QuantityTCO2e: 2.5, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		seed[i].Inputs = []byte(`{}`)
		seed[i].Outputs = []byte(`{}`)
		require.NoError(t, s.DB.Create(&seed[i]).Error)
	}

	ids := func(rows []domain.Emission) []string {
		out := []string{}
		for _, r := range rows {
			out = append(out, r.EmissionID)
		}
		return out
	}

	tests := []struct {
		name string
		f    EmissionFilter
		want []string
	}{
		{"all newest first", EmissionFilter{}, []string{"e4", "e3", "e2", "e1"}},
		{"by project", EmissionFilter{ProjectID: a.ProjectID}, []string{"e4", "e2", "e1"}},
		{"by methodology", EmissionFilter{Methodology: "VM0038"}, []string{"e4", "e3", "e1"}},
		{"date range inclusive", EmissionFilter{From: "2026-02-15", To: "2026-03-15"}, []string{"e3", "e2"}},
		{"limit", EmissionFilter{Limit: 2}, []string{"e4", "e3"}},
		{"no match", EmissionFilter{Methodology: "VMR0007"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.ListEmissions(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}

	_, err = s.ListEmissions(ctx, EmissionFilter{From: "May 1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	totals, err := s.TotalsByMethodology(ctx, a.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, []domain.MethodologyTotal{
		{Methodology: "AM0124", Records: 1, QuantityTCO2e: 20},
		{Methodology: "VM0038", Records: 2, QuantityTCO2e: 12.5},
	}, totals)

	totals, err = s.TotalsByMethodology(ctx, "")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, int64(3), totals[1].Records)
	assert.Equal(t, 17.5, totals[1].QuantityTCO2e)
}

func TestUpdateNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "EV-01", "")
	require.NoError(t, err)
	id, err := s.SaveEmission(ctx, rawInput(p.ProjectID))
	require.NoError(t, err)
	before, err := s.GetEmission(ctx, id)
	require.NoError(t, err)

	after, err := s.UpdateNotes(ctx, id, "reviewed")
	require.NoError(t, err)
	assert.Equal(t, "reviewed", after.Notes)
	assert.Equal(t, before.QuantityTCO2e, after.QuantityTCO2e)
	assert.Equal(t, before.RecordDate, after.RecordDate)
	assert.JSONEq(t, string(before.Inputs), string(after.Inputs))
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	_, err = s.UpdateNotes(ctx, "nope", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecode_UnregisteredMethodology(t *testing.T) {
	e := &domain.Emission{Methodology: "MANUAL", Inputs: []byte(`{}`), Outputs: []byte(`{}`)}
	_, err := Decode(e)
	assert.Error(t, err)

	raw, _ := json.Marshal(map[string]string{"a": "b"})
	e = &domain.Emission{Methodology: methodology.CodeVMR0007, Inputs: raw, Outputs: []byte(`{`)}
	_, err = Decode(e)
	assert.Error(t, err)
}
