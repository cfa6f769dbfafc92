package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxOIDArcs is the maximum number of arcs an OID may carry. Agents that
// send longer identifiers are non-conformant; the decoder rejects them.
const MaxOIDArcs = 128

// OID is an ordered sequence of unsigned 32-bit arcs. It is immutable once
// constructed: NewOID copies its input, and there is no exported mutator.
type OID struct {
	arcs []uint32
}

// NewOID builds an OID from a sequence of arcs, copying the slice so the
// caller's backing array can't mutate it afterward.
func NewOID(arcs ...uint32) OID {
	cp := make([]uint32, len(arcs))
	copy(cp, arcs)
	return OID{arcs: cp}
}

// Arcs returns the OID's arcs. The returned slice must not be mutated by
// the caller; it may alias the OID's internal storage.
func (o OID) Arcs() []uint32 {
	return o.arcs
}

// Len returns the number of arcs.
func (o OID) Len() int {
	return len(o.arcs)
}

// IsZero reports whether the OID has no arcs.
func (o OID) IsZero() bool {
	return len(o.arcs) == 0
}

// Compare returns -1, 0, or 1 following lexicographic order on arc vectors:
// arcs are compared as unsigned integers, and a shorter prefix is strictly
// less than any longer extension.
func (o OID) Compare(other OID) int {
	n := len(o.arcs)
	if len(other.arcs) < n {
		n = len(other.arcs)
	}
	for i := 0; i < n; i++ {
		if o.arcs[i] < other.arcs[i] {
			return -1
		}
		if o.arcs[i] > other.arcs[i] {
			return 1
		}
	}
	switch {
	case len(o.arcs) < len(other.arcs):
		return -1
	case len(o.arcs) > len(other.arcs):
		return 1
	default:
		return 0
	}
}

// Equal reports whether two OIDs have identical arcs.
func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}

// Less reports whether o sorts strictly before other.
func (o OID) Less(other OID) bool {
	return o.Compare(other) < 0
}

// StartsWith reports whether prefix is a prefix of o (every arc of prefix
// matches the corresponding arc of o). An OID is considered to start with
// itself.
func (o OID) StartsWith(prefix OID) bool {
	if len(prefix.arcs) > len(o.arcs) {
		return false
	}
	for i, a := range prefix.arcs {
		if o.arcs[i] != a {
			return false
		}
	}
	return true
}

// String renders the OID in dotted form, e.g. "1.3.6.1.2.1".
func (o OID) String() string {
	parts := make([]string, len(o.arcs))
	for i, a := range o.arcs {
		parts[i] = strconv.FormatUint(uint64(a), 10)
	}
	return strings.Join(parts, ".")
}

// validate enforces the arc-count cap and the first-two-arc constraint
// described in the data model: the first arc is 0, 1, or 2; when it is 0
// or 1 the second arc must be <= 39 (a constraint of the 40*first+second
// BER packing, not merely cosmetic).
func (o OID) validate() error {
	if len(o.arcs) > MaxOIDArcs {
		return newOidError(OidTooManyArcs, fmt.Sprintf("%d arcs exceeds maximum %d", len(o.arcs), MaxOIDArcs))
	}
	if len(o.arcs) == 0 {
		return nil
	}
	if o.arcs[0] > 2 {
		return newOidError(OidInvalidFirstArc, fmt.Sprintf("first arc %d must be 0, 1, or 2", o.arcs[0]))
	}
	if o.arcs[0] <= 1 && len(o.arcs) > 1 && o.arcs[1] > 39 {
		return newOidError(OidInvalidSecondArc, fmt.Sprintf("second arc %d exceeds 39 for first arc %d", o.arcs[1], o.arcs[0]))
	}
	return nil
}

// encodeSubIdentifier appends the base-128 big-endian continuation-bit
// encoding of v to buf (forward order; callers using the reverse-growing
// EncodeBuf push these bytes in reverse).
func encodeSubIdentifier(v uint32) []byte {
	if v == 0 {
		return []byte{0}
	}
	var tmp [5]byte
	n := 0
	for v > 0 {
		tmp[n] = byte(v & 0x7f)
		v >>= 7
		n++
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := tmp[n-1-i]
		if i != n-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

// decodeSubIdentifiers decodes the base-128 continuation-bit arcs packed
// in data, prepending the unpacked first two arcs from the 40*a+b split.
func decodeSubIdentifiers(data []byte) ([]uint32, error) {
	var arcs []uint32
	var acc uint64
	started := false
	for _, b := range data {
		started = true
		acc = acc<<7 | uint64(b&0x7f)
		if acc > 0xFFFFFFFF {
			return nil, newOidError(OidSubidentifierOverflow, "sub-identifier exceeds 32 bits")
		}
		if b&0x80 == 0 {
			arcs = append(arcs, uint32(acc))
			acc = 0
			started = false
		}
	}
	if started {
		return nil, newDecodeError(0, DecodeTruncatedData, "truncated OID sub-identifier")
	}
	if len(arcs) == 0 {
		return nil, nil
	}
	first := arcs[0] / 40
	second := arcs[0] % 40
	if first > 2 {
		first = 2
		second = arcs[0] - 80
	}
	out := make([]uint32, 0, len(arcs)+1)
	out = append(out, first, second)
	out = append(out, arcs[1:]...)
	return out, nil
}
