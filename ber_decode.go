package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Decoder consumes a byte slice and tracks an offset, exposing typed BER
// readers for the SNMP subset of X.690. Errors carry the absolute offset
// at which they were detected, even for readers operating on a
// sub-decoder returned by ReadSequence.
//
// Grounded on spec.md §4.1 and original_source's Decoder (not directly
// retrieved, but implied throughout ber/encode.rs's test oracles and
// varbind.rs's decode calls).
type Decoder struct {
	data []byte
	pos  int
	base int // absolute offset of data[0], for error reporting
}

// NewDecoder wraps data for decoding, starting at absolute offset 0.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

func newDecoderAt(data []byte, base int) *Decoder {
	return &Decoder{data: data, base: base}
}

// Remaining returns the number of undecoded bytes left.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// IsEmpty reports whether the decoder has consumed all its bytes.
func (d *Decoder) IsEmpty() bool {
	return d.Remaining() == 0
}

func (d *Decoder) absOffset() int {
	return d.base + d.pos
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, newDecodeError(d.absOffset(), DecodeTruncatedData, "unexpected end of data")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, newDecodeError(d.absOffset(), DecodeInsufficientData, "need more bytes than remain")
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// readLength decodes a BER length field (short or long form).
func (d *Decoder) readLength() (int, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if b&0x80 == 0 {
		return int(b), nil
	}
	n := int(b & 0x7f)
	if n == 0 {
		return 0, newDecodeError(d.absOffset(), DecodeIndefiniteLength, "indefinite length not supported")
	}
	if n > 4 {
		return 0, newDecodeError(d.absOffset(), DecodeLengthTooLong, "length encoding too long")
	}
	octets, err := d.readBytes(n)
	if err != nil {
		return 0, err
	}
	length := 0
	for _, o := range octets {
		length = length<<8 | int(o)
	}
	if length > MaxBerLength {
		return 0, newDecodeError(d.absOffset(), DecodeLengthExceedsMax, "length exceeds maximum")
	}
	return length, nil
}

// readTLV reads a tag, length, and content, verifying the expected tag.
func (d *Decoder) readTLV(expected byte) ([]byte, error) {
	offset := d.absOffset()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if tag != expected {
		return nil, newDecodeError(offset, DecodeUnexpectedTag, "mismatched tag")
	}
	length, err := d.readLength()
	if err != nil {
		return nil, err
	}
	content, err := d.readBytes(length)
	if err != nil {
		return nil, newDecodeError(offset, DecodeTlvOverflow, "TLV extends past end of data")
	}
	return content, nil
}

// peekTag returns the tag byte without consuming it.
func (d *Decoder) peekTag() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, newDecodeError(d.absOffset(), DecodeTruncatedData, "unexpected end of data")
	}
	return d.data[d.pos], nil
}

// ReadInteger reads a signed INTEGER. Zero-length is rejected, more than 5
// bytes is rejected (absorbing one leading 0x00 for sign disambiguation).
func (d *Decoder) ReadInteger() (int32, error) {
	offset := d.absOffset()
	content, err := d.readTLV(tagInteger)
	if err != nil {
		return 0, err
	}
	if len(content) == 0 {
		return 0, newDecodeError(offset, DecodeZeroLengthInteger, "zero-length integer")
	}
	if len(content) > 5 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer too long")
	}
	if len(content) == 5 && content[0] != 0x00 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer overflow")
	}
	v := int64(0)
	if content[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range content {
		v = v<<8 | int64(b)
	}
	if v > 0x7FFFFFFF || v < -0x80000000 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer overflow")
	}
	return int32(v), nil
}

// ReadUnsigned32 reads an unsigned 32-bit value tagged with the given tag
// (Counter32/Gauge32/TimeTicks all share this shape). Accepts up to 5
// bytes to absorb a leading zero.
func (d *Decoder) ReadUnsigned32(tag byte) (uint32, error) {
	offset := d.absOffset()
	content, err := d.readTLV(tag)
	if err != nil {
		return 0, err
	}
	if len(content) == 0 {
		return 0, newDecodeError(offset, DecodeZeroLengthInteger, "zero-length integer")
	}
	if len(content) > 5 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer too long")
	}
	if len(content) == 5 && content[0] != 0x00 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer overflow")
	}
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	if v > 0xFFFFFFFF {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer overflow")
	}
	return uint32(v), nil
}

// ReadCounter64 reads an unsigned 64-bit value. Accepts up to 9 bytes to
// absorb a leading zero.
func (d *Decoder) ReadCounter64() (uint64, error) {
	offset := d.absOffset()
	content, err := d.readTLV(tagCounter64)
	if err != nil {
		return 0, err
	}
	if len(content) == 0 {
		return 0, newDecodeError(offset, DecodeZeroLengthInteger, "zero-length integer")
	}
	if len(content) > 9 {
		return 0, newDecodeError(offset, DecodeInteger64TooLong, "integer64 too long")
	}
	if len(content) == 9 && content[0] != 0x00 {
		return 0, newDecodeError(offset, DecodeIntegerOverflow, "integer64 overflow")
	}
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadOctetString reads an OCTET STRING. Constructed encoding (tag 0x24)
// is explicitly rejected.
func (d *Decoder) ReadOctetString() ([]byte, error) {
	offset := d.absOffset()
	tag, err := d.peekTag()
	if err != nil {
		return nil, err
	}
	if tag == 0x24 {
		return nil, newDecodeError(offset, DecodeConstructedOctets, "constructed OCTET STRING not supported")
	}
	content, err := d.readTLV(tagOctetString)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// ReadOctetStringWithOffset is ReadOctetString but also returns the
// absolute offset of the content (not the tag/length header), so a caller
// can later patch bytes in place within the original buffer - used to
// locate the v3 USM AuthParams field for post-hoc HMAC patching.
func (d *Decoder) ReadOctetStringWithOffset() ([]byte, int, error) {
	offset := d.absOffset()
	tag, err := d.peekTag()
	if err != nil {
		return nil, 0, err
	}
	if tag == 0x24 {
		return nil, 0, newDecodeError(offset, DecodeConstructedOctets, "constructed OCTET STRING not supported")
	}
	if tag != tagOctetString {
		return nil, 0, newDecodeError(offset, DecodeUnexpectedTag, "expected OCTET STRING")
	}
	if _, err := d.readByte(); err != nil {
		return nil, 0, err
	}
	length, err := d.readLength()
	if err != nil {
		return nil, 0, err
	}
	contentOffset := d.absOffset()
	content, err := d.readBytes(length)
	if err != nil {
		return nil, 0, newDecodeError(offset, DecodeTlvOverflow, "TLV extends past end of data")
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, contentOffset, nil
}

// ReadOpaque reads an Opaque value.
func (d *Decoder) ReadOpaque() ([]byte, error) {
	content, err := d.readTLV(tagOpaque)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// ReadNull reads a NULL, which must have zero length.
func (d *Decoder) ReadNull() error {
	offset := d.absOffset()
	content, err := d.readTLV(tagNull)
	if err != nil {
		return err
	}
	if len(content) != 0 {
		return newDecodeError(offset, DecodeInvalidNull, "NULL with non-zero length")
	}
	return nil
}

// ReadIPAddress reads an IpAddress (application tag 0x40, exactly 4 bytes).
func (d *Decoder) ReadIPAddress() ([4]byte, error) {
	var out [4]byte
	offset := d.absOffset()
	content, err := d.readTLV(tagIPAddress)
	if err != nil {
		return out, err
	}
	if len(content) != 4 {
		return out, newDecodeError(offset, DecodeInvalidIPAddrLen, "IP address must be 4 bytes")
	}
	copy(out[:], content)
	return out, nil
}

// ReadOID reads an OBJECT IDENTIFIER.
func (d *Decoder) ReadOID() (OID, error) {
	offset := d.absOffset()
	content, err := d.readTLV(tagOID)
	if err != nil {
		return OID{}, err
	}
	arcs, err := decodeSubIdentifiers(content)
	if err != nil {
		return OID{}, err
	}
	o := OID{arcs: arcs}
	if err := o.validate(); err != nil {
		return OID{}, err
	}
	_ = offset
	return o, nil
}

// ReadExceptionTag reads a zero-length context-primitive exception marker
// and returns which tag it was.
func (d *Decoder) ReadExceptionTag() (byte, error) {
	offset := d.absOffset()
	tag, err := d.readByte()
	if err != nil {
		return 0, err
	}
	length, err := d.readLength()
	if err != nil {
		return 0, err
	}
	if length != 0 {
		return 0, newDecodeError(offset, DecodeInvalidLength, "exception marker must have zero length")
	}
	return tag, nil
}

// ReadSequence reads a SEQUENCE header and returns a sub-decoder scoped to
// its content, whose errors report absolute offsets within the original
// buffer.
func (d *Decoder) ReadSequence() (*Decoder, error) {
	offset := d.absOffset()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if tag != tagSequence {
		return nil, newDecodeError(offset, DecodeUnexpectedTag, "expected SEQUENCE")
	}
	length, err := d.readLength()
	if err != nil {
		return nil, err
	}
	content, err := d.readBytes(length)
	if err != nil {
		return nil, newDecodeError(offset, DecodeTlvOverflow, "SEQUENCE extends past end of data")
	}
	return newDecoderAt(content, d.base+d.pos-length), nil
}

// PeekTag exposes the next tag byte without consuming it, used by Value's
// variant dispatch and by the agent's version sniff.
func (d *Decoder) PeekTag() (byte, error) {
	return d.peekTag()
}
