package access

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// Policy decides what an access-controlled dimension type without any
// approved grant means.
type Policy int

const (
	// DenyByDefault: no grant for a type means no row with a key of that type is visible.
	DenyByDefault Policy = iota
	// AllowByDefault: no grant for a type leaves that type unfiltered.
	AllowByDefault
)

func (p Policy) String() string {
	if p == AllowByDefault {
		return "allow"
	}
	return "deny"
}

// ParsePolicy accepts "deny"/"allow" (and the long forms). Empty means deny.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deny", "deny_by_default", "denybydefault":
		return DenyByDefault, nil
	case "allow", "allow_by_default", "allowbydefault":
		return AllowByDefault, nil
	}
	return DenyByDefault, fmt.Errorf("unknown access policy: %q", s)
}

// DefaultControlled are the dimension types filtered by grants unless configured otherwise.
var DefaultControlled = []domain.DimensionType{domain.DimensionProduct, domain.DimensionRegion}

// Builder turns a user's grants into an AllowList.
type Builder struct {
	Policy     Policy
	Controlled []domain.DimensionType
}

// NewBuilder returns a builder; an empty controlled list means DefaultControlled.
func NewBuilder(policy Policy, controlled []domain.DimensionType) *Builder {
	if len(controlled) == 0 {
		controlled = DefaultControlled
	}
	return &Builder{Policy: policy, Controlled: controlled}
}

// Build keeps approved grants of at least minLevel for controlled types.
func (b *Builder) Build(grants []domain.AccessGrant, minLevel domain.AccessLevel) *AllowList {
	controlled := make(map[domain.DimensionType]bool, len(b.Controlled))
	for _, t := range b.Controlled {
		controlled[t] = true
	}

	granted := map[domain.DimensionType]map[string]struct{}{}
	for _, g := range grants {
		if g.ApprovalStatus != domain.ApprovalApproved {
			continue
		}
		if !controlled[g.DimensionType] || !g.AccessLevel.Satisfies(minLevel) {
			continue
		}
		if granted[g.DimensionType] == nil {
			granted[g.DimensionType] = map[string]struct{}{}
		}
		granted[g.DimensionType][g.DimensionMemberID] = struct{}{}
	}

	al := &AllowList{policy: b.Policy, sets: map[domain.DimensionType]map[string]struct{}{}}
	for _, t := range b.Controlled {
		if set, ok := granted[t]; ok {
			al.sets[t] = set
			continue
		}
		if b.Policy == DenyByDefault {
			al.sets[t] = map[string]struct{}{}
		}
	}
	return al
}

// AllowList maps each constrained dimension type to the member ids a user may see.
type AllowList struct {
	policy Policy
	sets   map[domain.DimensionType]map[string]struct{}
}

// Policy the list was built under.
func (a *AllowList) Policy() Policy { return a.policy }

// Constrained reports whether rows are filtered on t.
func (a *AllowList) Constrained(t domain.DimensionType) bool {
	_, ok := a.sets[t]
	return ok
}

// Types returns the constrained types in catalog order.
func (a *AllowList) Types() []domain.DimensionType {
	out := make([]domain.DimensionType, 0, len(a.sets))
	for _, t := range domain.AllDimensionTypes {
		if _, ok := a.sets[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// IDs returns the allowed member ids for t, sorted. Nil when t is unconstrained.
func (a *AllowList) IDs(t domain.DimensionType) []string {
	set, ok := a.sets[t]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Allows reports whether a key of type t passes. A nil key always passes.
func (a *AllowList) Allows(t domain.DimensionType, memberID *string) bool {
	set, ok := a.sets[t]
	if !ok || memberID == nil {
		return true
	}
	_, ok = set[*memberID]
	return ok
}

// AllowsRow checks every constrained key of f.
func (a *AllowList) AllowsRow(f *domain.FactRow) bool {
	for t := range a.sets {
		if !a.Allows(t, f.Key(t)) {
			return false
		}
	}
	return true
}

// Empty reports whether the list can match only rows with null keys on
// some constrained type.
func (a *AllowList) Empty(t domain.DimensionType) bool {
	set, ok := a.sets[t]
	return ok && len(set) == 0
}
