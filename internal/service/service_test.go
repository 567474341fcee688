package service

import (
	"context"
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getTestLogger() *zap.Logger {
	return zap.NewNop()
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// testEnv wires every service on memory repositories.
type testEnv struct {
	dims      *repository.MemoryDimensionsRepo
	facts     *repository.MemoryFactsRepo
	grants    *repository.MemoryAccessGrantsRepo
	versions  *repository.MemoryVersionsRepo
	rules     *repository.MemoryBusinessRulesRepo
	sessions  *grid.SessionStore
	publisher *recordingPublisher

	fetcher    *FactFetcher
	planning   *PlanningService
	dimensions *DimensionService
	versionSvc *VersionService
	grantSvc   *AccessGrantService
	ruleSvc    *RuleService

	ids map[string]string // business id -> member id
}

func newTestEnv(t *testing.T, policy access.Policy, controlled ...domain.DimensionType) *testEnv {
	t.Helper()
	logger := getTestLogger()
	e := &testEnv{
		dims:      repository.NewMemoryDimensionsRepo(),
		grants:    repository.NewMemoryAccessGrantsRepo(),
		rules:     repository.NewMemoryBusinessRulesRepo(),
		sessions:  grid.NewSessionStore(0, logger),
		publisher: &recordingPublisher{},
		ids:       map[string]string{},
	}
	e.facts = repository.NewMemoryFactsRepo(e.dims)
	e.versions = repository.NewMemoryVersionsRepo(e.dims, e.facts)

	e.fetcher = NewFactFetcher(e.grants, e.facts, access.NewBuilder(policy, controlled), logger)
	e.planning = NewPlanningService(e.fetcher, e.facts, e.sessions, e.publisher, logger)
	e.versionSvc = NewVersionService(e.dims, e.versions, e.publisher, logger)
	e.dimensions = NewDimensionService(e.dims, e.versionSvc, logger)
	e.grantSvc = NewAccessGrantService(e.grants, e.dims, nil, e.sessions, e.publisher, logger)
	e.ruleSvc = NewRuleService(e.rules, logger)
	return e
}

func (e *testEnv) member(t *testing.T, typ domain.DimensionType, businessID string, attrs map[string]any) string {
	t.Helper()
	id, err := e.dims.CreateMember(context.Background(), &domain.DimensionMember{
		Type:       typ,
		BusinessID: businessID,
		Attributes: attrs,
	})
	require.NoError(t, err)
	e.ids[businessID] = id
	return id
}

func (e *testEnv) fact(t *testing.T, f domain.FactRow) string {
	t.Helper()
	id, err := e.facts.CreateFact(context.Background(), &f)
	require.NoError(t, err)
	return id
}

func (e *testEnv) grant(t *testing.T, userID string, typ domain.DimensionType, memberID string, level domain.AccessLevel) {
	t.Helper()
	_, err := e.grants.CreateGrant(context.Background(), &domain.AccessGrant{
		UserID:            userID,
		DimensionType:     typ,
		DimensionMemberID: memberID,
		AccessLevel:       level,
		ApprovalStatus:    domain.ApprovalApproved,
	})
	require.NoError(t, err)
}

// seedProducts creates products P1/P2, region R1 and one fact per product.
func (e *testEnv) seedProducts(t *testing.T) {
	t.Helper()
	p1 := e.member(t, domain.DimensionProduct, "P1", map[string]any{"category": "Electronics"})
	p2 := e.member(t, domain.DimensionProduct, "P2", map[string]any{"category": "Apparel"})
	r1 := e.member(t, domain.DimensionRegion, "R1", map[string]any{"country": "DE"})
	e.ids["f1"] = e.fact(t, domain.FactRow{ProductID: &p1, RegionID: &r1, Measure1: floatPtr(150), Measure2: floatPtr(1)})
	e.ids["f2"] = e.fact(t, domain.FactRow{ProductID: &p2, RegionID: &r1, Measure1: floatPtr(50), Measure2: floatPtr(2)})
}

func rowIDs(rows []domain.JoinedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Fact.ID
	}
	return out
}
