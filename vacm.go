package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import "bytes"

// SecurityModel identifies which access-control mechanism authenticated a
// request: community-string (v1/v2c) or USM (v3).
type SecurityModel int32

const (
	SecurityModelAny       SecurityModel = 0
	SecurityModelSNMPv1    SecurityModel = 1
	SecurityModelSNMPv2c   SecurityModel = 2
	SecurityModelUSM       SecurityModel = 3
)

// ContextMatch describes whether a VacmContextEntry's contextPrefix must
// match the request's context name exactly or merely as a prefix.
type ContextMatch int

const (
	ContextExact ContextMatch = iota
	ContextPrefix
)

// ViewType is whether a ViewSubtree includes or excludes the OIDs under it.
type ViewType int

const (
	ViewIncluded ViewType = iota
	ViewExcluded
)

// ViewSubtree is one entry of a View: a subtree OID, an optional bitmask
// wildcarding some of its arcs, and whether matching OIDs are included or
// excluded from the view.
//
// Grounded on RFC 3415 §5.3's vacmViewTreeFamily table, summarized in
// DESIGN.md's vacm.rs survey notes (bitmask wildcard + include/exclude).
type ViewSubtree struct {
	Subtree OID
	Mask    []byte // bit i (MSB-first within each byte) gates arc i; nil means no wildcarding
	Type    ViewType
}

// matches reports whether oid falls under this subtree, honoring the mask:
// a 0 bit at position i means arc i of oid is a don't-care.
func (v ViewSubtree) matches(oid OID) bool {
	subtreeArcs := v.Subtree.Arcs()
	oidArcs := oid.Arcs()
	if len(oidArcs) < len(subtreeArcs) {
		return false
	}
	for i, want := range subtreeArcs {
		if v.bitSet(i) && oidArcs[i] != want {
			return false
		}
	}
	return true
}

func (v ViewSubtree) bitSet(arcIndex int) bool {
	if v.Mask == nil {
		return true
	}
	byteIdx := arcIndex / 8
	if byteIdx >= len(v.Mask) {
		return true
	}
	bitIdx := uint(7 - arcIndex%8)
	return v.Mask[byteIdx]&(1<<bitIdx) != 0
}

// View is a named set of ViewSubtree entries. An OID is in the view if it
// matches an Included entry and no more-specific Excluded entry overrides
// it (the most specific - longest subtree - entry wins per RFC 3415 §9).
type View struct {
	Name     string
	Subtrees []ViewSubtree
}

// Contains reports whether oid is within the view.
func (v View) Contains(oid OID) bool {
	var best *ViewSubtree
	for i := range v.Subtrees {
		st := &v.Subtrees[i]
		if !st.matches(oid) {
			continue
		}
		if best == nil || st.Subtree.Len() > best.Subtree.Len() {
			best = st
		}
	}
	if best == nil {
		return false
	}
	return best.Type == ViewIncluded
}

// VacmAccessEntry is one row of the vacmAccessTable (RFC 3415 §5.4):
// what a (group, context-prefix, security-model, security-level) tuple may
// do, and which views govern read/write/notify.
type VacmAccessEntry struct {
	GroupName     string
	ContextPrefix string
	ContextMatch  ContextMatch
	SecurityModel SecurityModel
	SecurityLevel MsgFlags
	ReadView      string
	WriteView     string
	NotifyView    string
}

// VacmGroupEntry maps a (securityModel, securityName) pair onto a group
// name (RFC 3415 §5.2's vacmSecurityToGroupTable).
type VacmGroupEntry struct {
	SecurityModel SecurityModel
	SecurityName  string
	GroupName     string
}

// Config is the full VACM configuration: groups, access entries, and named
// views. Access checks are read-only against a built Config; mutate by
// replacing it (e.g. after a SET to a VACM MIB table), matching the
// teacher's preference for plain data + explicit rebuild over in-place
// mutation of shared config.
type Config struct {
	Groups  []VacmGroupEntry
	Access  []VacmAccessEntry
	Views   map[string]View
}

// GetGroup finds the group a (securityModel, securityName) pair belongs
// to.
func (c *Config) GetGroup(model SecurityModel, securityName string) (string, bool) {
	for _, g := range c.Groups {
		if g.SecurityModel == model && g.SecurityName == securityName {
			return g.GroupName, true
		}
	}
	return "", false
}

// GetAccess finds the best-matching vacmAccessTable row for the given
// group/context/model/level, applying RFC 3415 §4's four-tier preference
// order: a model-specific row beats a SecurityModelAny row; exact context
// match beats prefix match; among same-match-type rows, the longest (most
// specific) context prefix wins; among ties, higher security level wins.
func (c *Config) GetAccess(group, contextName string, model SecurityModel, level MsgFlags) (VacmAccessEntry, bool) {
	var best *VacmAccessEntry
	for i := range c.Access {
		a := &c.Access[i]
		if a.GroupName != group {
			continue
		}
		if a.SecurityModel != SecurityModelAny && a.SecurityModel != model {
			continue
		}
		if a.SecurityLevel > level {
			continue
		}
		if !contextMatches(*a, contextName) {
			continue
		}
		if best == nil || betterAccessMatch(*a, *best, contextName) {
			aCopy := *a
			best = &aCopy
		}
	}
	if best == nil {
		return VacmAccessEntry{}, false
	}
	return *best, true
}

func contextMatches(a VacmAccessEntry, contextName string) bool {
	switch a.ContextMatch {
	case ContextExact:
		return a.ContextPrefix == contextName
	default:
		return bytes.HasPrefix([]byte(contextName), []byte(a.ContextPrefix))
	}
}

// betterAccessMatch reports whether candidate outranks incumbent under the
// RFC 3415 §4 ordering: a model-specific entry beats one registered for
// SecurityModelAny; within the same specificity, exact-match beats
// prefix-match; within the same match kind, a longer context prefix (more
// specific) wins; within ties, higher security level wins.
func betterAccessMatch(candidate, incumbent VacmAccessEntry, contextName string) bool {
	candSpecific := candidate.SecurityModel != SecurityModelAny
	incSpecific := incumbent.SecurityModel != SecurityModelAny
	if candSpecific != incSpecific {
		return candSpecific
	}
	candExact := candidate.ContextMatch == ContextExact
	incExact := incumbent.ContextMatch == ContextExact
	if candExact != incExact {
		return candExact
	}
	if len(candidate.ContextPrefix) != len(incumbent.ContextPrefix) {
		return len(candidate.ContextPrefix) > len(incumbent.ContextPrefix)
	}
	return candidate.SecurityLevel > incumbent.SecurityLevel
}

// viewFor returns the named read/write/notify view for an access entry,
// given which PDU operation is being checked.
func (c *Config) viewFor(entry VacmAccessEntry, pduType PduType) (View, bool) {
	var name string
	switch pduType {
	case PduGet, PduGetNext, PduGetBulk:
		name = entry.ReadView
	case PduSet:
		name = entry.WriteView
	case PduTrapV1, PduTrapV2, PduInform:
		name = entry.NotifyView
	default:
		name = entry.ReadView
	}
	if name == "" {
		return View{}, false
	}
	v, ok := c.Views[name]
	return v, ok
}

// CheckAccess resolves the full VACM chain for one (securityName, oid,
// operation) and reports whether it's permitted, along with the resolved
// group/view names for RequestContext (so a Handler can see why).
func (c *Config) CheckAccess(model SecurityModel, securityName, contextName string, level MsgFlags, pduType PduType, oid OID) (allowed bool, groupName, viewName string) {
	group, ok := c.GetGroup(model, securityName)
	if !ok {
		return false, "", ""
	}
	access, ok := c.GetAccess(group, contextName, model, level)
	if !ok {
		return false, group, ""
	}
	view, ok := c.viewFor(access, pduType)
	if !ok {
		return false, group, ""
	}
	if !view.Contains(oid) {
		return false, group, view.Name
	}
	return true, group, view.Name
}
