package service

import (
	"context"
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionService_Catalog(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	entries := e.dimensions.Catalog()
	require.Len(t, entries, len(domain.AllDimensionTypes))
	assert.Equal(t, "product", entries[0].Type)
}

func TestDimensionService_MemberLifecycle(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	ctx := context.Background()

	id, err := e.dimensions.CreateMember(ctx, CreateMemberRequest{
		UserID: "u1", Type: "product", BusinessID: " P1 ", Attributes: map[string]any{"category": "Electronics"},
	})
	require.NoError(t, err)

	_, err = e.dimensions.CreateMember(ctx, CreateMemberRequest{Type: "product", BusinessID: "P1"})
	assert.ErrorIs(t, err, ErrDuplicateMember)

	_, err = e.dimensions.CreateMember(ctx, CreateMemberRequest{Type: "product", BusinessID: "P9", Attributes: map[string]any{"product_id": "x"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.dimensions.CreateMember(ctx, CreateMemberRequest{Type: "product", BusinessID: ""})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	item, err := e.dimensions.GetMember(ctx, "product", id)
	require.NoError(t, err)
	assert.Equal(t, "P1", item.BusinessID)

	desc := "renamed"
	item, err = e.dimensions.UpdateMember(ctx, UpdateMemberRequest{
		Type: "product", ID: id, BusinessID: "P1-NEW", Description: &desc, Attributes: map[string]any{"category": "Home"},
	})
	require.NoError(t, err)
	assert.Equal(t, "P1-NEW", item.BusinessID)

	list, err := e.dimensions.ListMembers(ctx, ListMembersRequest{Type: "product", Search: "new"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = e.dimensions.GetMember(ctx, "product", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.dimensions.ListMembers(ctx, ListMembersRequest{Type: "galaxy"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDimensionService_VersionMembersKeepStatus(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	ctx := context.Background()

	id, err := e.dimensions.CreateMember(ctx, CreateMemberRequest{
		UserID: "u1", Type: "version", BusinessID: "Plan", Attributes: map[string]any{
			domain.AttrVersionType:   "budget",
			domain.AttrVersionStatus: "published",
		},
	})
	require.NoError(t, err)

	v, err := e.versionSvc.GetVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", v.Status)

	_, err = e.dimensions.UpdateMember(ctx, UpdateMemberRequest{
		Type: "version", ID: id, BusinessID: "Plan", Attributes: map[string]any{
			domain.AttrVersionType:   "forecast",
			domain.AttrVersionStatus: "archived",
		},
	})
	require.NoError(t, err)

	v, err = e.versionSvc.GetVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", v.Status)
	assert.Equal(t, "forecast", v.VersionType)
}
