package access

import (
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func grant(t domain.DimensionType, id string, level domain.AccessLevel, status domain.ApprovalStatus) domain.AccessGrant {
	return domain.AccessGrant{
		UserID:            "u1",
		DimensionType:     t,
		DimensionMemberID: id,
		AccessLevel:       level,
		ApprovalStatus:    status,
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DenyByDefault, p)

	p, err = ParsePolicy(" Allow ")
	require.NoError(t, err)
	assert.Equal(t, AllowByDefault, p)
	assert.Equal(t, "allow", p.String())

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestBuild_OnlyApprovedGrantsCount(t *testing.T) {
	b := NewBuilder(DenyByDefault, nil)
	al := b.Build([]domain.AccessGrant{
		grant(domain.DimensionProduct, "P1", domain.AccessRead, domain.ApprovalApproved),
		grant(domain.DimensionProduct, "P2", domain.AccessRead, domain.ApprovalPending),
		grant(domain.DimensionProduct, "P3", domain.AccessRead, domain.ApprovalRejected),
	}, domain.AccessRead)

	assert.Equal(t, []string{"P1"}, al.IDs(domain.DimensionProduct))
	assert.True(t, al.Allows(domain.DimensionProduct, strPtr("P1")))
	assert.False(t, al.Allows(domain.DimensionProduct, strPtr("P2")))
}

func TestBuild_DenyByDefaultConstrainsUngrantedTypes(t *testing.T) {
	al := NewBuilder(DenyByDefault, nil).Build(nil, domain.AccessRead)

	for _, typ := range DefaultControlled {
		assert.True(t, al.Constrained(typ))
		assert.True(t, al.Empty(typ))
		assert.Empty(t, al.IDs(typ))
		assert.False(t, al.Allows(typ, strPtr("anything")))
		// null keys are not constrained
		assert.True(t, al.Allows(typ, nil))
	}
	assert.False(t, al.Constrained(domain.DimensionTime))
	assert.Equal(t, DefaultControlled, al.Types())
}

func TestBuild_AllowByDefaultLeavesUngrantedTypesOpen(t *testing.T) {
	al := NewBuilder(AllowByDefault, nil).Build([]domain.AccessGrant{
		grant(domain.DimensionProduct, "P1", domain.AccessRead, domain.ApprovalApproved),
	}, domain.AccessRead)

	assert.True(t, al.Constrained(domain.DimensionProduct))
	assert.False(t, al.Constrained(domain.DimensionRegion))
	assert.Nil(t, al.IDs(domain.DimensionRegion))
	assert.True(t, al.Allows(domain.DimensionRegion, strPtr("R9")))
}

func TestBuild_MinLevel(t *testing.T) {
	grants := []domain.AccessGrant{
		grant(domain.DimensionProduct, "P1", domain.AccessRead, domain.ApprovalApproved),
		grant(domain.DimensionProduct, "P2", domain.AccessWrite, domain.ApprovalApproved),
		grant(domain.DimensionProduct, "P3", domain.AccessAdmin, domain.ApprovalApproved),
	}
	b := NewBuilder(DenyByDefault, []domain.DimensionType{domain.DimensionProduct})

	assert.Equal(t, []string{"P1", "P2", "P3"}, b.Build(grants, domain.AccessRead).IDs(domain.DimensionProduct))
	assert.Equal(t, []string{"P2", "P3"}, b.Build(grants, domain.AccessWrite).IDs(domain.DimensionProduct))
	assert.Equal(t, []string{"P3"}, b.Build(grants, domain.AccessAdmin).IDs(domain.DimensionProduct))
}

func TestBuild_IgnoresUncontrolledTypes(t *testing.T) {
	b := NewBuilder(DenyByDefault, []domain.DimensionType{domain.DimensionProduct})
	al := b.Build([]domain.AccessGrant{
		grant(domain.DimensionTime, "D1", domain.AccessRead, domain.ApprovalApproved),
	}, domain.AccessRead)

	assert.False(t, al.Constrained(domain.DimensionTime))
	assert.Equal(t, []domain.DimensionType{domain.DimensionProduct}, al.Types())
}

func TestAllowsRow(t *testing.T) {
	al := NewBuilder(DenyByDefault, nil).Build([]domain.AccessGrant{
		grant(domain.DimensionProduct, "P1", domain.AccessRead, domain.ApprovalApproved),
		grant(domain.DimensionRegion, "R1", domain.AccessRead, domain.ApprovalApproved),
	}, domain.AccessRead)

	assert.True(t, al.AllowsRow(&domain.FactRow{ProductID: strPtr("P1"), RegionID: strPtr("R1")}))
	assert.True(t, al.AllowsRow(&domain.FactRow{ProductID: strPtr("P1")}))
	assert.False(t, al.AllowsRow(&domain.FactRow{ProductID: strPtr("P2"), RegionID: strPtr("R1")}))
	assert.False(t, al.AllowsRow(&domain.FactRow{ProductID: strPtr("P1"), RegionID: strPtr("R2")}))
}
