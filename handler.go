package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"net"
	"sort"
)

// RequestContext carries everything a Handler might need to know about the
// request it's serving, beyond the OID(s) being operated on: who sent it,
// under which security posture, and which VACM group/views govern it.
//
// Grounded directly on original_source/src/handler/context.rs.
type RequestContext struct {
	Source        net.Addr
	Version       Version
	SecurityModel SecurityModel
	SecurityName  string
	SecurityLevel MsgFlags
	ContextName   string
	RequestID     int32
	PduType       PduType
	GroupName     string
	ReadView      string
	WriteView     string
}

// GetResult is what a Handler's Get returns for one OID: either a value, or
// one of the two RFC 3416 per-instance exceptions.
//
// Grounded directly on original_source/src/handler/results.rs's GetResult.
type GetResult struct {
	kind  getResultKind
	value Value
}

type getResultKind int

const (
	getResultValue getResultKind = iota
	getResultNoSuchObject
	getResultNoSuchInstance
)

// GetValue wraps a found value.
func GetValue(v Value) GetResult { return GetResult{kind: getResultValue, value: v} }

// GetNoSuchObject reports that no such object exists in this agent's MIB.
func GetNoSuchObject() GetResult { return GetResult{kind: getResultNoSuchObject} }

// GetNoSuchInstance reports that the object exists but this instance does
// not.
func GetNoSuchInstance() GetResult { return GetResult{kind: getResultNoSuchInstance} }

// GetResultFromOption builds a GetResult from an optional value: present
// means found, absent means NoSuchInstance (the common case for a handler
// backed by a table that recognizes the column but lacks the row).
func GetResultFromOption(v *Value) GetResult {
	if v == nil {
		return GetNoSuchInstance()
	}
	return GetValue(*v)
}

// Value converts to a wire VarBind value.
func (r GetResult) Value() Value {
	switch r.kind {
	case getResultNoSuchObject:
		return NewNoSuchObject()
	case getResultNoSuchInstance:
		return NewNoSuchInstance()
	default:
		return r.value
	}
}

// GetNextResult is what a Handler's GetNext returns: the next (OID, Value)
// pair, or EndOfMibView if nothing further exists under the handler's
// registered subtree.
//
// Grounded directly on original_source/src/handler/results.rs's
// GetNextResult.
type GetNextResult struct {
	end   bool
	oid   OID
	value Value
}

// NextValue wraps the next (oid, value) pair.
func NextValue(oid OID, v Value) GetNextResult {
	return GetNextResult{oid: oid, value: v}
}

// NextEndOfMibView reports that the handler's subtree is exhausted.
func NextEndOfMibView() GetNextResult { return GetNextResult{end: true} }

// VarBind converts to a wire varbind, substituting the requested OID (not
// used here - GetNext advances the OID) when ending the view.
func (r GetNextResult) VarBind(requested OID) VarBind {
	if r.end {
		return VarBind{OID: requested, Value: NewEndOfMibView()}
	}
	return VarBind{OID: r.oid, Value: r.value}
}

// SetResult is the outcome of a Handler's TestSet/CommitSet/UndoSet calls,
// mapping directly onto an RFC 3416 ErrorStatus.
//
// Grounded directly on original_source/src/handler/results.rs's SetResult
// (12-variant enum with to_error_status()).
type SetResult int

const (
	SetOK SetResult = iota
	SetNoSuchObject
	SetNoSuchInstance
	SetNoAccess
	SetWrongType
	SetWrongLength
	SetWrongEncoding
	SetWrongValue
	SetNoCreation
	SetInconsistentValue
	SetResourceUnavailable
	SetCommitFailed
	SetUndoFailed
	SetNotWritable
	SetGenErr
)

// ErrorStatus maps a SetResult onto its RFC 3416 wire code.
func (r SetResult) ErrorStatus() ErrorStatus {
	switch r {
	case SetOK:
		return NoError
	case SetNoSuchObject, SetNoSuchInstance:
		return NoCreation
	case SetNoAccess:
		return NoAccess
	case SetWrongType:
		return WrongType
	case SetWrongLength:
		return WrongLength
	case SetWrongEncoding:
		return WrongEncoding
	case SetWrongValue:
		return WrongValue
	case SetNoCreation:
		return NoCreation
	case SetInconsistentValue:
		return InconsistentValue
	case SetResourceUnavailable:
		return ResourceUnavailable
	case SetCommitFailed:
		return CommitFailed
	case SetUndoFailed:
		return UndoFailed
	case SetNotWritable:
		return NotWritable
	default:
		return GenErr
	}
}

// Handler serves one subtree of the MIB. Get, GetNext, and Handles are
// required (each needs the handler's own notion of which OIDs it owns, which
// only the concrete handler has); the Set-related methods have defaults so a
// read-only handler need not implement them.
//
// Grounded on original_source/src/handler/mod.rs's Handler trait, adapted
// to Go's interface-plus-embeddable-default-struct idiom (Rust's default
// trait methods have no direct Go equivalent; BaseHandler supplies the
// same defaults via embedding).
type Handler interface {
	Get(ctx *RequestContext, oid OID) GetResult
	GetNext(ctx *RequestContext, oid OID) GetNextResult

	TestSet(ctx *RequestContext, oid OID, value Value) SetResult
	CommitSet(ctx *RequestContext, oid OID, value Value) SetResult
	UndoSet(ctx *RequestContext, oid OID, value Value) SetResult

	// Handles reports whether this handler actually owns oid. OidTable's
	// lookup uses it as an override past the registered-prefix match: the
	// default shape (a handler that owns its entire registered subtree)
	// just returns oid.StartsWith(itsOwnPrefix), but a handler covering a
	// non-contiguous set of instances under a broader registered prefix
	// (e.g. a sparse table) can say no to a prefix match that doesn't
	// correspond to a real row, letting OidTable fall back to a shorter
	// registered prefix instead of dispatching into a dead end.
	Handles(oid OID) bool
}

// BaseHandler supplies the read-only defaults (TestSet and CommitSet fail
// with NotWritable; UndoSet is a no-op returning SetOK) for embedding into
// a handler that only implements
// Get/GetNext/Handles.
type BaseHandler struct{}

func (BaseHandler) TestSet(ctx *RequestContext, oid OID, value Value) SetResult   { return SetNotWritable }
func (BaseHandler) CommitSet(ctx *RequestContext, oid OID, value Value) SetResult { return SetNotWritable }
func (BaseHandler) UndoSet(ctx *RequestContext, oid OID, value Value) SetResult   { return SetOK }

// OidTable dispatches to the Handler registered for the longest matching
// OID prefix, backed by a sorted vector and binary search rather than a
// tree, the way the teacher's pack favors flat sorted-slice lookups over
// pointer-heavy trees for small, mostly-static registries.
//
// Grounded on original_source/src/oid_table.rs (summarized in DESIGN.md's
// survey: sorted vector keyed by OID prefix, binary-search dispatch).
type OidTable struct {
	entries []oidTableEntry
}

type oidTableEntry struct {
	prefix  OID
	handler Handler
}

// NewOidTable builds an empty, ready-to-register table.
func NewOidTable() *OidTable {
	return &OidTable{}
}

// Register adds handler for the given subtree prefix, keeping entries
// sorted by prefix so Lookup can binary-search.
func (t *OidTable) Register(prefix OID, handler Handler) {
	t.entries = append(t.entries, oidTableEntry{prefix: prefix, handler: handler})
	sort.Slice(t.entries, func(i, j int) bool {
		return t.entries[i].prefix.Less(t.entries[j].prefix)
	})
}

// Lookup returns the handler whose registered prefix is the longest one
// that oid starts with, or nil if none match.
func (t *OidTable) Lookup(oid OID) Handler {
	e, ok := t.lookupEntry(oid)
	if !ok {
		return nil
	}
	return e.handler
}

// NextHandler returns the handler registered for the smallest prefix
// strictly greater than oid (or whose prefix oid starts within), used by
// the agent's GetNext dispatch to find which handler owns the successor
// subtree once the current handler reports EndOfMibView.
func (t *OidTable) NextHandler(oid OID) (Handler, bool) {
	_, h, ok := t.NextEntry(oid)
	return h, ok
}

// NextEntry is NextHandler, but also returns the matched entry's
// registered prefix, so a caller walking across handler boundaries (the
// agent's GetNext/GetBulk traversal) can resume the search strictly past
// the current handler once it reports its subtree exhausted.
func (t *OidTable) NextEntry(oid OID) (prefix OID, handler Handler, ok bool) {
	if e, found := t.lookupEntry(oid); found {
		return e.prefix, e.handler, true
	}
	return t.nextEntryStrictlyAfter(oid)
}

// lookupEntry finds the entry whose registered prefix oid starts with,
// trying the longest (most specific) candidate prefix first and falling
// back to shorter ones if the handler's own Handles override rejects oid -
// the hook a non-contiguous handler (e.g. a sparse table) uses to decline a
// prefix match that doesn't correspond to a real row.
func (t *OidTable) lookupEntry(oid OID) (oidTableEntry, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].prefix.Compare(oid) > 0
	})
	type candidate struct {
		entry *oidTableEntry
		len   int
	}
	var candidates []candidate
	for j := i - 1; j >= 0; j-- {
		e := &t.entries[j]
		if oid.StartsWith(e.prefix) {
			candidates = append(candidates, candidate{entry: e, len: e.prefix.Len()})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].len > candidates[j].len })
	for _, c := range candidates {
		if c.entry.handler.Handles(oid) {
			return *c.entry, true
		}
	}
	return oidTableEntry{}, false
}

// nextEntryStrictlyAfter finds the entry whose prefix is the smallest one
// strictly greater than oid, ignoring any entry that merely covers oid -
// used to resume past a handler once its subtree is known exhausted.
func (t *OidTable) nextEntryStrictlyAfter(oid OID) (OID, Handler, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].prefix.Compare(oid) > 0
	})
	if i >= len(t.entries) {
		return OID{}, nil, false
	}
	return t.entries[i].prefix, t.entries[i].handler, true
}
