package asyncsnmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewSubtreeMaskWildcards(t *testing.T) {
	// mask byte 0b11111011 wildcards arc 5, the last arc of a 6-arc subtree.
	st := ViewSubtree{
		Subtree: NewOID(1, 3, 6, 1, 2, 1),
		Mask:    []byte{0xfb},
		Type:    ViewIncluded,
	}
	assert.True(t, st.matches(NewOID(1, 3, 6, 1, 2, 7, 1)), "expected wildcarded arcs to match any value")
	assert.False(t, st.matches(NewOID(1, 3, 6, 1, 9, 1)), "expected a non-wildcarded arc mismatch to fail")
}

func TestViewContainsPrefersMostSpecificSubtree(t *testing.T) {
	v := View{
		Name: "all-but-private",
		Subtrees: []ViewSubtree{
			{Subtree: NewOID(1, 3, 6, 1), Type: ViewIncluded},
			{Subtree: NewOID(1, 3, 6, 1, 4, 1), Type: ViewExcluded},
		},
	}
	assert.True(t, v.Contains(NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0)), "expected system subtree to be included")
	assert.False(t, v.Contains(NewOID(1, 3, 6, 1, 4, 1, 9999, 1)), "expected the more specific exclusion to win over the broader inclusion")
}

func TestGetAccessPrefersExactContextOverPrefix(t *testing.T) {
	cfg := &Config{
		Access: []VacmAccessEntry{
			{GroupName: "g", ContextPrefix: "", ContextMatch: ContextPrefix, SecurityModel: SecurityModelUSM, SecurityLevel: NoAuthNoPriv, ReadView: "broad"},
			{GroupName: "g", ContextPrefix: "ops", ContextMatch: ContextExact, SecurityModel: SecurityModelUSM, SecurityLevel: NoAuthNoPriv, ReadView: "ops-only"},
		},
	}
	entry, ok := cfg.GetAccess("g", "ops", SecurityModelUSM, NoAuthNoPriv)
	require.True(t, ok, "expected a match")
	assert.Equal(t, "ops-only", entry.ReadView, "expected the exact-context entry to win")
}

func TestGetAccessPrefersHigherSecurityLevel(t *testing.T) {
	cfg := &Config{
		Access: []VacmAccessEntry{
			{GroupName: "g", ContextMatch: ContextPrefix, SecurityModel: SecurityModelUSM, SecurityLevel: NoAuthNoPriv, ReadView: "public"},
			{GroupName: "g", ContextMatch: ContextPrefix, SecurityModel: SecurityModelUSM, SecurityLevel: FlagAuthPriv, ReadView: "secure"},
		},
	}
	entry, ok := cfg.GetAccess("g", "", SecurityModelUSM, FlagAuthPriv)
	require.True(t, ok, "expected a match")
	assert.Equal(t, "secure", entry.ReadView, "expected the authPriv-level entry at authPriv request level to win")
}

func TestGetAccessRejectsInsufficientSecurityLevel(t *testing.T) {
	cfg := &Config{
		Access: []VacmAccessEntry{
			{GroupName: "g", ContextMatch: ContextPrefix, SecurityModel: SecurityModelUSM, SecurityLevel: FlagAuthPriv, ReadView: "secure"},
		},
	}
	_, ok := cfg.GetAccess("g", "", SecurityModelUSM, NoAuthNoPriv)
	assert.False(t, ok, "expected no access entry to qualify at a lower security level than required")
}

func TestGetAccessPrefersModelSpecificOverAny(t *testing.T) {
	anyEntry := VacmAccessEntry{GroupName: "g", ContextMatch: ContextPrefix, SecurityModel: SecurityModelAny, SecurityLevel: NoAuthNoPriv, ReadView: "any-view"}
	v2cEntry := VacmAccessEntry{GroupName: "g", ContextMatch: ContextPrefix, SecurityModel: SecurityModelSNMPv2c, SecurityLevel: NoAuthNoPriv, ReadView: "v2c-view"}

	cfg := &Config{Access: []VacmAccessEntry{anyEntry, v2cEntry}}
	entry, ok := cfg.GetAccess("g", "", SecurityModelSNMPv2c, NoAuthNoPriv)
	require.True(t, ok, "expected a match")
	assert.Equal(t, "v2c-view", entry.ReadView, "expected the model-specific entry to win over SecurityModelAny")

	// Same two entries, reversed insertion order: the winner must not depend
	// on slice position.
	cfg = &Config{Access: []VacmAccessEntry{v2cEntry, anyEntry}}
	entry, ok = cfg.GetAccess("g", "", SecurityModelSNMPv2c, NoAuthNoPriv)
	require.True(t, ok, "expected a match")
	assert.Equal(t, "v2c-view", entry.ReadView, "expected the model-specific entry to win regardless of insertion order")
}

func TestCheckAccessFullChain(t *testing.T) {
	cfg := &Config{
		Groups: []VacmGroupEntry{
			{SecurityModel: SecurityModelUSM, SecurityName: "alice", GroupName: "admins"},
		},
		Access: []VacmAccessEntry{
			{GroupName: "admins", ContextMatch: ContextPrefix, SecurityModel: SecurityModelUSM, SecurityLevel: NoAuthNoPriv, ReadView: "all", WriteView: "all"},
		},
		Views: map[string]View{
			"all": {Name: "all", Subtrees: []ViewSubtree{{Subtree: NewOID(1, 3, 6, 1), Type: ViewIncluded}}},
		},
	}
	allowed, group, view := cfg.CheckAccess(SecurityModelUSM, "alice", "", NoAuthNoPriv, PduGet, NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0))
	require.True(t, allowed)
	assert.Equal(t, "admins", group)
	assert.Equal(t, "all", view)

	allowed, _, _ = cfg.CheckAccess(SecurityModelUSM, "mallory", "", NoAuthNoPriv, PduGet, NewOID(1, 3, 6, 1))
	assert.False(t, allowed, "expected an unknown security name to be denied")
}
