package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/estimator/internal/db"
	"github.com/Simplici0/estimator/internal/logging"
	"github.com/Simplici0/estimator/internal/migrations"
	"github.com/Simplici0/estimator/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(ctx, database, logging.NewPrintfAdapter(nil)))
	return New(database)
}

func seedWebsiteModel(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.CreateProjectType(ctx, pricing.ProjectType{Key: "WEBSITE", DisplayName: "Website", BaseRateILS: 9000, Active: true})
	require.NoError(t, err)
	_, err = s.CreateFeature(ctx, pricing.Feature{Key: "blog", DefaultCostILS: 1500, Active: true})
	require.NoError(t, err)

	for _, key := range []string{pricing.GroupComplexity, pricing.GroupTimeline, pricing.GroupTech, pricing.GroupClientType} {
		_, err := s.CreateMultiplierGroup(ctx, pricing.MultiplierGroup{
			Key:    key,
			Active: true,
			Options: []pricing.MultiplierOption{
				{Key: "default", Value: 1, Active: true},
			},
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.SetMetaSetting(ctx, pricing.PageCostPerPage(750)))
	require.NoError(t, s.SetMetaSetting(ctx, pricing.RangePercent(0.18)))
}

func TestGetModelFeedsCalculator(t *testing.T) {
	s := newTestStore(t)
	seedWebsiteModel(t, s)

	model, err := s.GetModel(context.Background(), false)
	require.NoError(t, err)

	result, err := pricing.Calculate(model, pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5}, nil, pricing.Options{})
	require.NoError(t, err)
	require.Equal(t, 12750.0, result.Total)
	require.Equal(t, pricing.Range{Min: 10455, Max: 15045}, result.Range)
	require.Equal(t, "ILS", result.Currency)
}

func TestGetModelHidesInactiveRowsUnlessRequested(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWebsiteModel(t, s)

	legacy, err := s.CreateProjectType(ctx, pricing.ProjectType{Key: "FLASH_SITE", BaseRateILS: 100, Active: true})
	require.NoError(t, err)
	require.NoError(t, s.SetProjectTypeActive(ctx, legacy.ID, false))

	public, err := s.GetModel(ctx, false)
	require.NoError(t, err)
	_, ok := public.ProjectType("FLASH_SITE")
	require.False(t, ok)

	admin, err := s.GetModel(ctx, true)
	require.NoError(t, err)
	pt, ok := admin.ProjectType("FLASH_SITE")
	require.True(t, ok)
	require.False(t, pt.Active)
}

func TestProjectTypeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateProjectType(ctx, pricing.ProjectType{Key: " APP ", BaseRateILS: 20000, Order: 2, Active: true})
	require.NoError(t, err)
	require.Equal(t, "APP", rec.Key)
	require.Equal(t, "APP", rec.DisplayName)

	_, err = s.CreateProjectType(ctx, pricing.ProjectType{Key: "APP", BaseRateILS: 1})
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.CreateProjectType(ctx, pricing.ProjectType{Key: "BAD", BaseRateILS: -1})
	require.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, s.UpdateProjectType(ctx, rec.ID, pricing.ProjectType{Key: "APP", DisplayName: "Mobile app", BaseRateILS: 25000, Active: true}))
	list, err := s.ListProjectTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Mobile app", list[0].DisplayName)
	require.Equal(t, 25000.0, list[0].BaseRateILS)

	require.ErrorIs(t, s.UpdateProjectType(ctx, 999, pricing.ProjectType{Key: "X"}), ErrNotFound)
	require.ErrorIs(t, s.SetProjectTypeActive(ctx, 999, true), ErrNotFound)

	require.NoError(t, s.DeleteProjectType(ctx, rec.ID))
	require.ErrorIs(t, s.DeleteProjectType(ctx, rec.ID), ErrNotFound)
}

func TestFeatureCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateFeature(ctx, pricing.Feature{Key: "payments", DefaultCostILS: 3000, Active: true})
	require.NoError(t, err)

	require.NoError(t, s.SetFeatureActive(ctx, rec.ID, false))
	active, err := s.ListFeatures(ctx, false)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, s.UpdateFeature(ctx, rec.ID, pricing.Feature{Key: "payments", DefaultCostILS: 3500, Active: true}))
	active, err = s.ListFeatures(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, 3500.0, active[0].DefaultCostILS)

	require.NoError(t, s.DeleteFeature(ctx, rec.ID))
}

func TestMultiplierGroupsAndOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	group, err := s.CreateMultiplierGroup(ctx, pricing.MultiplierGroup{
		Key:    pricing.GroupTimeline,
		Active: true,
		Options: []pricing.MultiplierOption{
			{Key: "rush", Value: 1.3, Order: 2, Active: true},
			{Key: "normal", Value: 1, Order: 1, Active: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, group.Options, 2)

	_, err = s.CreateMultiplierOption(ctx, pricing.GroupTimeline, pricing.MultiplierOption{Key: "relaxed", Value: 0.9, Order: 0, Active: true})
	require.NoError(t, err)
	_, err = s.CreateMultiplierOption(ctx, "missing", pricing.MultiplierOption{Key: "x", Value: 1})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.CreateMultiplierOption(ctx, pricing.GroupTimeline, pricing.MultiplierOption{Key: "zero", Value: 0})
	require.ErrorIs(t, err, ErrInvalid)
	_, err = s.CreateMultiplierOption(ctx, pricing.GroupTimeline, pricing.MultiplierOption{Key: "rush", Value: 2})
	require.ErrorIs(t, err, ErrConflict)

	model, err := s.GetModel(ctx, false)
	require.NoError(t, err)
	g, ok := model.Group(pricing.GroupTimeline)
	require.True(t, ok)
	require.Equal(t, "relaxed", g.DefaultOptionKey)

	groups, err := s.ListMultiplierGroups(ctx, true)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Options, 3)
	relaxedID := groups[0].Options[0].ID
	require.Equal(t, "relaxed", groups[0].Options[0].Key)

	require.NoError(t, s.SetMultiplierOptionActive(ctx, relaxedID, false))
	model, err = s.GetModel(ctx, false)
	require.NoError(t, err)
	g, _ = model.Group(pricing.GroupTimeline)
	require.Equal(t, "normal", g.DefaultOptionKey)

	require.NoError(t, s.UpdateMultiplierOption(ctx, relaxedID, pricing.MultiplierOption{Key: "relaxed", Value: 0.8, Order: 5, Active: true}))
	require.NoError(t, s.UpdateMultiplierGroup(ctx, group.ID, pricing.MultiplierGroup{Key: pricing.GroupTimeline, DisplayName: "Timeline", Active: true}))

	require.NoError(t, s.DeleteMultiplierGroup(ctx, group.ID))
	var remaining int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM multiplier_options`).Scan(&remaining))
	require.Zero(t, remaining, "options must cascade with their group")
}

func TestMetaSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta, err := s.GetMeta(ctx)
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultMeta(), meta)

	_, err = s.SetMetaRaw(ctx, pricing.MetaProjectMinimums, []byte(`{"WEBSITE": 4000}`))
	require.NoError(t, err)
	_, err = s.SetMetaRaw(ctx, pricing.MetaRangePercent, []byte(`1.7`))
	require.ErrorIs(t, err, ErrInvalid)
	_, err = s.SetMetaRaw(ctx, "unknownKey", []byte(`1`))
	require.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, s.SetMetaSetting(ctx, pricing.RangePercent(0.1)))
	require.NoError(t, s.SetMetaSetting(ctx, pricing.RangePercent(0.2)))

	meta, err = s.GetMeta(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.2, meta.RangePercent)
	require.Equal(t, 4000.0, meta.ProjectMinimums["WEBSITE"])
}

func TestDiscounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateDiscount(ctx, pricing.Discount{
		Code:      " spring10 ",
		Type:      pricing.DiscountPercent,
		Amount:    10,
		AppliesTo: pricing.ScopeRule{AllowedProjectTypes: []string{"WEBSITE"}},
	})
	require.NoError(t, err)
	require.Equal(t, "SPRING10", rec.Code)

	_, err = s.CreateDiscount(ctx, pricing.Discount{Code: "SPRING10", Type: pricing.DiscountFixed, Amount: 5})
	require.ErrorIs(t, err, ErrConflict)
	_, err = s.CreateDiscount(ctx, pricing.Discount{Code: "BAD", Type: "bogo", Amount: 5})
	require.ErrorIs(t, err, ErrInvalid)

	found, err := s.LookupDiscount(ctx, "spring10")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, []string{"WEBSITE"}, found.AppliesTo.AllowedProjectTypes)

	missing, err := s.LookupDiscount(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.SetDiscountActive(ctx, rec.ID, false))
	inactive, err := s.LookupDiscount(ctx, "SPRING10")
	require.NoError(t, err)
	require.Nil(t, inactive)

	require.NoError(t, s.UpdateDiscount(ctx, rec.ID, pricing.Discount{Code: "SPRING15", Type: pricing.DiscountPercent, Amount: 15}))
	list, err := s.ListDiscounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "SPRING15", list[0].Code)
	require.False(t, list[0].Active)

	require.NoError(t, s.DeleteDiscount(ctx, rec.ID))
}

func TestLookupDiscountToleratesMalformedScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO discount_codes (code, discount_type, amount, applies_to_json, active)
		VALUES ('LEGACY', 'fixed', 100, '{"projectTypes": 42, "clientTypes": "smb"', 1)
	`)
	require.NoError(t, err)

	d, err := s.LookupDiscount(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.True(t, d.AppliesTo.IsUnrestricted())
}

func TestIntakeRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	first, err := s.CreateIntake(ctx, IntakeRequest{
		Name:      "Dana",
		Email:     "dana@example.com",
		Company:   "Bakery",
		Message:   "Need an online shop",
		Inputs:    pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5},
		Breakdown: pricing.Breakdown{Total: 12750},
	})
	require.NoError(t, err)
	require.Len(t, first.ID, 26)

	second, err := s.CreateIntake(ctx, IntakeRequest{
		Name:      "Noam",
		Email:     "noam@example.com",
		Breakdown: pricing.Breakdown{Total: 30000},
	})
	require.NoError(t, err)

	_, err = s.CreateIntake(ctx, IntakeRequest{Name: "X", Email: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalid)

	all, err := s.ListIntakes(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Equal(t, 30000.0, all[0].Total)

	filtered, err := s.ListIntakes(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Dana", filtered[0].Name)

	got, err := s.GetIntake(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(first.CreatedAt))
	require.Equal(t, 12750.0, got.Breakdown.Total)
	require.Equal(t, 5, got.Inputs.NumPages)

	_, err = s.GetIntake(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEstimate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWebsiteModel(t, s)

	_, err := s.CreateDiscount(ctx, pricing.Discount{Code: "TEN", Type: pricing.DiscountPercent, Amount: 10})
	require.NoError(t, err)

	b, err := s.Estimate(ctx, pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5}, " ten ", pricing.Options{})
	require.NoError(t, err)
	require.Equal(t, 11475.0, b.Total)
	require.Equal(t, pricing.Range{Min: 9410, Max: 13541}, b.Range)

	b, err = s.Estimate(ctx, pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5}, "ghost", pricing.Options{})
	require.NoError(t, err)
	require.Equal(t, 12750.0, b.Total)
	require.Equal(t, []string{`discount code "GHOST" not found`}, b.Warnings)

	_, err = s.Estimate(ctx, pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: -2}, "", pricing.Options{})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = s.Estimate(ctx, pricing.Inputs{ProjectTypeKey: "NOPE"}, "", pricing.Options{})
	var cfgErr *pricing.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestListIntakesMatchesWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, req := range []IntakeRequest{
		{Name: "Percent", Email: "p@example.com", Message: "we are 100% ready"},
		{Name: "Plain", Email: "plain@example.com", Message: "1000 visitors a day"},
		{Name: "Under", Email: "u@example.com", Company: "big_corp"},
		{Name: "Slash", Email: "s@example.com", Company: `a\b`},
	} {
		_, err := s.CreateIntake(ctx, req)
		require.NoError(t, err)
	}

	cases := map[string][]string{
		"100%":     {"Percent"},
		"%":        {"Percent"},
		"_":        {"Under"},
		"big_corp": {"Under"},
		`\`:       {"Slash"},
		"1000":     {"Plain"},
	}
	for query, want := range cases {
		found, err := s.ListIntakes(ctx, query)
		require.NoError(t, err)
		names := make([]string, 0, len(found))
		for _, f := range found {
			names = append(names, f.Name)
		}
		require.ElementsMatch(t, want, names, "query %q", query)
	}
}
