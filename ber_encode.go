package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// EncodeBuf is a reverse-growing BER encoder: content is written tail-
// first, then length and tag are prepended once the content's size is
// known. This avoids a sizing pre-pass over nested structures. Call
// Finish to obtain the bytes in forward (wire) order.
//
// Grounded on original_source/src/ber/encode.rs's EncodeBuf.
type EncodeBuf struct {
	buf []byte
}

// NewEncodeBuf returns an empty encoder.
func NewEncodeBuf() *EncodeBuf {
	return &EncodeBuf{}
}

// Len returns the number of bytes written so far.
func (e *EncodeBuf) Len() int {
	return len(e.buf)
}

// PushByte appends a single byte in reverse-buffer order (i.e. it becomes
// the next byte preceding what's already there once Finish reverses).
func (e *EncodeBuf) PushByte(b byte) {
	e.buf = append(e.buf, b)
}

// PushBytes appends data so that, after the final reversal, it appears in
// its original order. Since the buffer itself grows backward, the bytes
// must be pushed in reverse.
func (e *EncodeBuf) PushBytes(data []byte) {
	for i := len(data) - 1; i >= 0; i-- {
		e.buf = append(e.buf, data[i])
	}
}

// PushLength writes a BER length field (short or long form) in
// reverse-buffer order.
func (e *EncodeBuf) PushLength(n int) {
	if n < 0 {
		panic("asyncsnmp: negative length")
	}
	if n < 128 {
		e.PushByte(byte(n))
		return
	}
	var octets []byte
	v := n
	for v > 0 {
		octets = append(octets, byte(v&0xff))
		v >>= 8
	}
	// octets is little-endian; reverse it to big-endian for the wire, then
	// push (which itself reverses), so push it in little-endian order.
	for _, o := range octets {
		e.PushByte(o)
	}
	e.PushByte(0x80 | byte(len(octets)))
}

// PushTag writes a single tag byte.
func (e *EncodeBuf) PushTag(tag byte) {
	e.PushByte(tag)
}

// PushConstructed runs f to encode the inner content, then prepends the
// BER length and tag once the content's length is known.
func (e *EncodeBuf) PushConstructed(tag byte, f func(*EncodeBuf)) {
	start := len(e.buf)
	f(e)
	contentLen := len(e.buf) - start
	e.PushLength(contentLen)
	e.PushTag(tag)
}

// PushSequence is PushConstructed with the SEQUENCE tag.
func (e *EncodeBuf) PushSequence(f func(*EncodeBuf)) {
	e.PushConstructed(tagSequence, f)
}

// minimalSignedBytes returns the minimal two's-complement big-endian
// encoding of v, e.g. 0 -> [0], 128 -> [0,128], -1 -> [0xFF].
func minimalSignedBytes(v int64, width int) []byte {
	var raw [8]byte
	for i := 0; i < width; i++ {
		raw[i] = byte(v >> (8 * uint(width-1-i)))
	}
	b := raw[:width]
	for len(b) > 1 {
		if b[0] == 0x00 && b[1]&0x80 == 0 {
			b = b[1:]
			continue
		}
		if b[0] == 0xFF && b[1]&0x80 != 0 {
			b = b[1:]
			continue
		}
		break
	}
	return b
}

// PushInteger writes a minimally-encoded signed INTEGER.
func (e *EncodeBuf) PushInteger(v int32) {
	b := minimalSignedBytes(int64(v), 4)
	e.PushBytes(b)
	e.PushLength(len(b))
	e.PushTag(tagInteger)
}

// PushInteger64 writes a minimally-encoded signed 64-bit INTEGER (used
// internally; the public SNMP types only need unsigned Counter64).
func (e *EncodeBuf) PushInteger64(v int64) {
	b := minimalSignedBytes(v, 8)
	e.PushBytes(b)
	e.PushLength(len(b))
	e.PushTag(tagInteger)
}

// minimalUnsignedBytes returns the minimal big-endian encoding of v with a
// leading 0x00 inserted iff the top bit would otherwise be set (so it is
// never mistaken for a negative INTEGER).
func minimalUnsignedBytes(v uint64, width int) []byte {
	var raw [9]byte
	for i := 0; i < width; i++ {
		raw[i] = byte(v >> (8 * uint(width-1-i)))
	}
	b := raw[:width]
	for len(b) > 1 && b[0] == 0x00 && b[1]&0x80 == 0 {
		b = b[1:]
	}
	if b[0]&0x80 != 0 {
		out := make([]byte, len(b)+1)
		copy(out[1:], b)
		return out
	}
	return b
}

// PushUnsigned32 writes a tagged unsigned 32-bit value (Counter32, Gauge32,
// TimeTicks all share this shape; tag is supplied by the caller).
func (e *EncodeBuf) PushUnsigned32(tag byte, v uint32) {
	b := minimalUnsignedBytes(uint64(v), 4)
	e.PushBytes(b)
	e.PushLength(len(b))
	e.PushTag(tag)
}

// PushCounter64 writes a tagged unsigned 64-bit value.
func (e *EncodeBuf) PushCounter64(v uint64) {
	b := minimalUnsignedBytes(v, 8)
	e.PushBytes(b)
	e.PushLength(len(b))
	e.PushTag(tagCounter64)
}

// PushOctetString writes an OCTET STRING.
func (e *EncodeBuf) PushOctetString(data []byte) {
	e.PushBytes(data)
	e.PushLength(len(data))
	e.PushTag(tagOctetString)
}

// PushOpaque writes an Opaque value (application tag 0x44, octet-string
// shaped content).
func (e *EncodeBuf) PushOpaque(data []byte) {
	e.PushBytes(data)
	e.PushLength(len(data))
	e.PushTag(tagOpaque)
}

// PushNull writes a NULL.
func (e *EncodeBuf) PushNull() {
	e.PushLength(0)
	e.PushTag(tagNull)
}

// PushIPAddress writes an IpAddress (application tag 0x40, 4 raw bytes).
func (e *EncodeBuf) PushIPAddress(addr [4]byte) {
	e.PushBytes(addr[:])
	e.PushLength(4)
	e.PushTag(tagIPAddress)
}

// PushExceptionTag writes a zero-length context-primitive exception marker
// (NoSuchObject/NoSuchInstance/EndOfMibView).
func (e *EncodeBuf) PushExceptionTag(tag byte) {
	e.PushLength(0)
	e.PushTag(tag)
}

// PushOID writes an OBJECT IDENTIFIER: the first two arcs packed as
// 40*first+second, then every remaining arc base-128 encoded.
func (e *EncodeBuf) PushOID(o OID) {
	arcs := o.arcs
	start := len(e.buf)
	if len(arcs) == 0 {
		e.PushLength(0)
		e.PushTag(tagOID)
		return
	}
	first, second := arcs[0], uint32(0)
	var rest []uint32
	if len(arcs) > 1 {
		second = arcs[1]
		rest = arcs[2:]
	}
	packed := first*40 + second
	// Encode forward bytes, then push them in reverse via PushBytes.
	var forward []byte
	forward = append(forward, encodeSubIdentifier(packed)...)
	for _, a := range rest {
		forward = append(forward, encodeSubIdentifier(a)...)
	}
	e.PushBytes(forward)
	contentLen := len(e.buf) - start
	e.PushLength(contentLen)
	e.PushTag(tagOID)
}

// Finish reverses the internal buffer and returns forward-ordered bytes.
func (e *EncodeBuf) Finish() []byte {
	out := make([]byte, len(e.buf))
	n := len(e.buf)
	for i, b := range e.buf {
		out[n-1-i] = b
	}
	return out
}
