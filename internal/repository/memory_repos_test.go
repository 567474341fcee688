package repository

import (
	"context"
	"math"
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func seedMemoryFacts(t *testing.T) (*MemoryDimensionsRepo, *MemoryFactsRepo, map[string]string) {
	t.Helper()
	ctx := context.Background()
	dims := NewMemoryDimensionsRepo()
	facts := NewMemoryFactsRepo(dims)

	ids := map[string]string{}
	for _, m := range []domain.DimensionMember{
		{Type: domain.DimensionProduct, BusinessID: "P1", Attributes: map[string]any{"category": "Electronics"}},
		{Type: domain.DimensionProduct, BusinessID: "P2", Attributes: map[string]any{"category": "Apparel"}},
		{Type: domain.DimensionRegion, BusinessID: "R1"},
	} {
		m := m
		id, err := dims.CreateMember(ctx, &m)
		require.NoError(t, err)
		ids[m.BusinessID] = id
	}

	for _, f := range []domain.FactRow{
		{ID: "f1", ProductID: strPtr(ids["P1"]), RegionID: strPtr(ids["R1"]), Measure1: floatPtr(150)},
		{ID: "f2", ProductID: strPtr(ids["P2"]), RegionID: strPtr(ids["R1"]), Measure1: floatPtr(50)},
		{ID: "f3", Measure1: floatPtr(120)},
		{ID: "f4", ProductID: strPtr(ids["P1"])},
	} {
		f := f
		_, err := facts.CreateFact(ctx, &f)
		require.NoError(t, err)
	}
	return dims, facts, ids
}

func factIDs(rows []domain.JoinedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Fact.ID
	}
	return out
}

func TestMemoryFacts_ConstraintsKeepNullKeys(t *testing.T) {
	_, facts, ids := seedMemoryFacts(t)

	rows, err := facts.ListJoined(context.Background(), FactQuery{
		Constraints: map[domain.DimensionType][]string{domain.DimensionProduct: {ids["P1"]}},
		OrderBy:     []OrderTerm{{Column: "measure1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f3", "f1", "f4"}, factIDs(rows))
}

func TestMemoryFacts_EmptyConstraintOnlyNullKeys(t *testing.T) {
	_, facts, _ := seedMemoryFacts(t)

	rows, err := facts.ListJoined(context.Background(), FactQuery{
		Constraints: map[domain.DimensionType][]string{domain.DimensionProduct: {}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f3"}, factIDs(rows))
}

func TestMemoryFacts_JoinAndAttributeOrder(t *testing.T) {
	_, facts, _ := seedMemoryFacts(t)

	rows, err := facts.ListJoined(context.Background(), FactQuery{
		OrderBy: []OrderTerm{{Dimension: domain.DimensionProduct, Column: "category", Desc: true}},
	})
	require.NoError(t, err)
	// descending puts rows without a product first, like Postgres NULLS FIRST
	assert.Equal(t, []string{"f3", "f1", "f4", "f2"}, factIDs(rows))

	m := rows[1].Member(domain.DimensionProduct)
	require.NotNil(t, m)
	assert.Equal(t, "P1", m.BusinessID)
	assert.Nil(t, rows[0].Member(domain.DimensionProduct))
}

func TestMemoryFacts_RejectsUnknownOrderColumn(t *testing.T) {
	_, facts, _ := seedMemoryFacts(t)
	_, err := facts.ListJoined(context.Background(), FactQuery{OrderBy: []OrderTerm{{Column: "password"}}})
	assert.Error(t, err)
}

func TestMemoryFacts_UpdateMeasure(t *testing.T) {
	_, facts, _ := seedMemoryFacts(t)
	ctx := context.Background()

	f, err := facts.UpdateMeasure(ctx, "f2", domain.MeasureField2, floatPtr(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, *f.Measure2)

	f, err = facts.UpdateMeasure(ctx, "f2", domain.MeasureField1, nil)
	require.NoError(t, err)
	assert.Nil(t, f.Measure1)

	_, err = facts.UpdateMeasure(ctx, "nope", domain.MeasureField1, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDimensions_ListSearchAndPage(t *testing.T) {
	dims, _, _ := seedMemoryFacts(t)
	ctx := context.Background()

	items, total, err := dims.ListMembers(ctx, domain.DimensionProduct, DimensionFilter{Search: "p"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].BusinessID)

	items, _, err = dims.ListMembers(ctx, domain.DimensionProduct, DimensionFilter{}, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	m, err := dims.GetMemberByBusinessID(ctx, domain.DimensionRegion, "R1")
	require.NoError(t, err)
	// returned members are copies
	m.Attributes["mutated"] = true
	again, err := dims.GetMember(ctx, domain.DimensionRegion, m.ID)
	require.NoError(t, err)
	assert.NotContains(t, again.Attributes, "mutated")
}

func TestMemoryVersions_CreateVersionCopiesBase(t *testing.T) {
	ctx := context.Background()
	dims := NewMemoryDimensionsRepo()
	facts := NewMemoryFactsRepo(dims)
	for _, f := range []domain.FactRow{
		{ID: "a", VersionID: strPtr("v1"), Measure1: floatPtr(1)},
		{ID: "b", VersionID: strPtr("v1"), Measure1: floatPtr(2)},
		{ID: "c", VersionID: strPtr("v2")},
	} {
		f := f
		_, err := facts.CreateFact(ctx, &f)
		require.NoError(t, err)
	}

	versions := NewMemoryVersionsRepo(dims, facts)
	id, n, err := versions.CreateVersion(ctx, &domain.DimensionMember{Type: domain.DimensionVersion, BusinessID: "Forecast"}, strPtr("v1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := dims.GetMember(ctx, domain.DimensionVersion, id)
	require.NoError(t, err)
	assert.Equal(t, "Forecast", m.BusinessID)

	rows, err := facts.ListJoined(ctx, FactQuery{})
	require.NoError(t, err)
	copied := 0
	for _, r := range rows {
		if r.Fact.VersionID != nil && *r.Fact.VersionID == id {
			copied++
		}
	}
	assert.Equal(t, 2, copied)
	assert.Len(t, rows, 5)

	_, _, err = versions.CreateVersion(ctx, &domain.DimensionMember{Type: domain.DimensionProduct, BusinessID: "P9"}, nil)
	assert.Error(t, err)
	_, total, err := dims.ListMembers(ctx, domain.DimensionProduct, DimensionFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func seedVersion(t *testing.T, dims *MemoryDimensionsRepo, status domain.VersionStatus) string {
	t.Helper()
	v := domain.Version{
		Member:      domain.DimensionMember{Type: domain.DimensionVersion, BusinessID: "Budget"},
		VersionType: domain.VersionBudget,
		Status:      status,
	}
	m := v.ApplyToMember()
	id, err := dims.CreateMember(context.Background(), &m)
	require.NoError(t, err)
	return id
}

func versionStatus(t *testing.T, dims *MemoryDimensionsRepo, id string) domain.VersionStatus {
	t.Helper()
	m, err := dims.GetMember(context.Background(), domain.DimensionVersion, id)
	require.NoError(t, err)
	v, err := domain.VersionFromMember(*m)
	require.NoError(t, err)
	return v.Status
}

func TestMemoryVersions_ApplyStatusChange(t *testing.T) {
	ctx := context.Background()
	dims := NewMemoryDimensionsRepo()
	versions := NewMemoryVersionsRepo(dims, NewMemoryFactsRepo(dims))
	id := seedVersion(t, dims, domain.VersionDraft)

	hid, err := versions.ApplyStatusChange(ctx, &domain.VersionStatusChange{
		VersionID: id, FromStatus: domain.VersionDraft, ToStatus: domain.VersionInReview, ChangedBy: "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, hid)
	assert.Equal(t, domain.VersionInReview, versionStatus(t, dims, id))

	// a second writer that read "draft" loses
	_, err = versions.ApplyStatusChange(ctx, &domain.VersionStatusChange{
		VersionID: id, FromStatus: domain.VersionDraft, ToStatus: domain.VersionArchived, ChangedBy: "u2",
	})
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.Equal(t, domain.VersionInReview, versionStatus(t, dims, id))

	_, err = versions.ApplyStatusChange(ctx, &domain.VersionStatusChange{
		VersionID: "missing", FromStatus: domain.VersionDraft, ToStatus: domain.VersionInReview, ChangedBy: "u1",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := versions.ListStatusChanges(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "u1", history[0].ChangedBy)
}

func TestMemoryVersions_ApplyStatusChangeHistoryFailureLeavesStatus(t *testing.T) {
	ctx := context.Background()
	dims := NewMemoryDimensionsRepo()
	versions := NewMemoryVersionsRepo(dims, NewMemoryFactsRepo(dims))
	id := seedVersion(t, dims, domain.VersionDraft)

	_, err := versions.ApplyStatusChange(ctx, &domain.VersionStatusChange{
		VersionID: id, FromStatus: domain.VersionDraft, ToStatus: domain.VersionInReview,
	})
	require.Error(t, err)

	assert.Equal(t, domain.VersionDraft, versionStatus(t, dims, id))
	history, err := versions.ListStatusChanges(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryGrants_DecideOnlyPending(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccessGrantsRepo()

	id, err := repo.CreateGrant(ctx, &domain.AccessGrant{
		UserID: "u1", DimensionType: domain.DimensionProduct, DimensionMemberID: "P1", AccessLevel: domain.AccessRead,
	})
	require.NoError(t, err)

	g, err := repo.DecideGrant(ctx, id, domain.ApprovalApproved, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, g.ApprovalStatus)
	require.NotNil(t, g.DecidedBy)
	assert.Equal(t, "admin", *g.DecidedBy)

	_, err = repo.DecideGrant(ctx, id, domain.ApprovalRejected, "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	byUser, err := repo.ListGrantsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	list, total, err := repo.ListGrants(ctx, AccessGrantsFilter{ApprovalStatus: domain.ApprovalPending}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestMemoryRules_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBusinessRulesRepo()
	product := domain.DimensionProduct

	_, err := repo.CreateRule(ctx, &domain.BusinessRule{Name: "b", RuleType: domain.RuleValidation, DimensionType: &product, IsActive: true})
	require.NoError(t, err)
	_, err = repo.CreateRule(ctx, &domain.BusinessRule{Name: "a", RuleType: domain.RuleAllocation, IsActive: false})
	require.NoError(t, err)

	all, err := repo.ListRules(ctx, RulesFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)

	active, err := repo.ListRules(ctx, RulesFilter{ActiveOnly: true, DimensionType: domain.DimensionProduct})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Name)

	assert.ErrorIs(t, repo.DeleteRule(ctx, "missing"), ErrNotFound)
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		name              string
		total, page, size int
		start, end        int
	}{
		{"first page", 5, 1, 2, 0, 2},
		{"last partial page", 5, 3, 2, 4, 5},
		{"past end", 5, 4, 2, 5, 5},
		{"empty list", 0, 1, 2, 0, 0},
		{"huge page", 5, (1 << 62) + 1, 2, 5, 5},
		{"huge page and size", 5, math.MaxInt, math.MaxInt, 5, 5},
		{"huge size", 5, 1, math.MaxInt, 0, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := PageWindow(tc.total, tc.page, tc.size)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestMemoryDimensions_ListMembersHugePage(t *testing.T) {
	ctx := context.Background()
	dims, _, _ := seedMemoryFacts(t)

	var (
		members []*domain.DimensionMember
		total   int
		err     error
	)
	require.NotPanics(t, func() {
		members, total, err = dims.ListMembers(ctx, domain.DimensionProduct, DimensionFilter{}, (1<<62)+1, 2)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, members)
}
