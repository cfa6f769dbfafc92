package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import "fmt"

// ValueKind discriminates the variant held by a Value.
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueOctetString
	ValueNull
	ValueObjectIdentifier
	ValueIPAddress
	ValueCounter32
	ValueGauge32
	ValueTimeTicks
	ValueOpaque
	ValueCounter64
	ValueNoSuchObject
	ValueNoSuchInstance
	ValueEndOfMibView
	ValueUnknown
)

// Value is a tagged union over the SNMP data types. Exactly one of the
// typed fields is meaningful, selected by Kind; the exception kinds and
// Null carry no payload.
//
// Grounded on spec.md §3 and original_source/src/value.rs (summarized via
// varbind.rs's usage and error.rs's DecodeErrorKind tag list, since
// value.rs itself was filtered from the retrieval pack).
type Value struct {
	Kind ValueKind

	Integer          int32
	OctetStringValue []byte
	OID              OID
	IPAddress        [4]byte
	Counter32        uint32
	Gauge32          uint32
	TimeTicks        uint32
	Opaque           []byte
	Counter64        uint64

	// ValueUnknown
	UnknownTag   byte
	UnknownBytes []byte
}

func NewInteger(v int32) Value { return Value{Kind: ValueInteger, Integer: v} }
func NewOctetString(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: ValueOctetString, OctetStringValue: cp}
}
func NewNull() Value                     { return Value{Kind: ValueNull} }
func NewObjectIdentifier(o OID) Value    { return Value{Kind: ValueObjectIdentifier, OID: o} }
func NewIPAddress(a [4]byte) Value       { return Value{Kind: ValueIPAddress, IPAddress: a} }
func NewCounter32(v uint32) Value        { return Value{Kind: ValueCounter32, Counter32: v} }
func NewGauge32(v uint32) Value          { return Value{Kind: ValueGauge32, Gauge32: v} }
func NewTimeTicks(v uint32) Value        { return Value{Kind: ValueTimeTicks, TimeTicks: v} }
func NewOpaque(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: ValueOpaque, Opaque: cp}
}
func NewCounter64(v uint64) Value { return Value{Kind: ValueCounter64, Counter64: v} }
func NewNoSuchObject() Value      { return Value{Kind: ValueNoSuchObject} }
func NewNoSuchInstance() Value    { return Value{Kind: ValueNoSuchInstance} }
func NewEndOfMibView() Value      { return Value{Kind: ValueEndOfMibView} }

// IsException reports whether v is one of the three RFC 3416 exception
// markers (NoSuchObject, NoSuchInstance, EndOfMibView).
func (v Value) IsException() bool {
	switch v.Kind {
	case ValueNoSuchObject, ValueNoSuchInstance, ValueEndOfMibView:
		return true
	default:
		return false
	}
}

// Equal reports deep equality between two Values.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueInteger:
		return v.Integer == other.Integer
	case ValueOctetString:
		return bytesEqual(v.OctetStringValue, other.OctetStringValue)
	case ValueNull, ValueNoSuchObject, ValueNoSuchInstance, ValueEndOfMibView:
		return true
	case ValueObjectIdentifier:
		return v.OID.Equal(other.OID)
	case ValueIPAddress:
		return v.IPAddress == other.IPAddress
	case ValueCounter32:
		return v.Counter32 == other.Counter32
	case ValueGauge32:
		return v.Gauge32 == other.Gauge32
	case ValueTimeTicks:
		return v.TimeTicks == other.TimeTicks
	case ValueOpaque:
		return bytesEqual(v.Opaque, other.Opaque)
	case ValueCounter64:
		return v.Counter64 == other.Counter64
	case ValueUnknown:
		return v.UnknownTag == other.UnknownTag && bytesEqual(v.UnknownBytes, other.UnknownBytes)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInteger:
		return fmt.Sprintf("%d", v.Integer)
	case ValueOctetString:
		return fmt.Sprintf("%q", v.OctetStringValue)
	case ValueNull:
		return "NULL"
	case ValueObjectIdentifier:
		return v.OID.String()
	case ValueIPAddress:
		return fmt.Sprintf("%d.%d.%d.%d", v.IPAddress[0], v.IPAddress[1], v.IPAddress[2], v.IPAddress[3])
	case ValueCounter32:
		return fmt.Sprintf("Counter32: %d", v.Counter32)
	case ValueGauge32:
		return fmt.Sprintf("Gauge32: %d", v.Gauge32)
	case ValueTimeTicks:
		return fmt.Sprintf("Timeticks: %d", v.TimeTicks)
	case ValueOpaque:
		return fmt.Sprintf("Opaque: % x", v.Opaque)
	case ValueCounter64:
		return fmt.Sprintf("Counter64: %d", v.Counter64)
	case ValueNoSuchObject:
		return "noSuchObject"
	case ValueNoSuchInstance:
		return "noSuchInstance"
	case ValueEndOfMibView:
		return "endOfMibView"
	case ValueUnknown:
		return fmt.Sprintf("Unknown(tag=0x%02x)", v.UnknownTag)
	default:
		return "?"
	}
}

// Encode writes v's BER encoding to buf.
func (v Value) Encode(buf *EncodeBuf) {
	switch v.Kind {
	case ValueInteger:
		buf.PushInteger(v.Integer)
	case ValueOctetString:
		buf.PushOctetString(v.OctetStringValue)
	case ValueNull:
		buf.PushNull()
	case ValueObjectIdentifier:
		buf.PushOID(v.OID)
	case ValueIPAddress:
		buf.PushIPAddress(v.IPAddress)
	case ValueCounter32:
		buf.PushUnsigned32(tagCounter32, v.Counter32)
	case ValueGauge32:
		buf.PushUnsigned32(tagGauge32, v.Gauge32)
	case ValueTimeTicks:
		buf.PushUnsigned32(tagTimeTicks, v.TimeTicks)
	case ValueOpaque:
		buf.PushOpaque(v.Opaque)
	case ValueCounter64:
		buf.PushCounter64(v.Counter64)
	case ValueNoSuchObject:
		buf.PushExceptionTag(tagNoSuchObject)
	case ValueNoSuchInstance:
		buf.PushExceptionTag(tagNoSuchInstance)
	case ValueEndOfMibView:
		buf.PushExceptionTag(tagEndOfMibView)
	case ValueUnknown:
		buf.PushBytes(v.UnknownBytes)
		buf.PushLength(len(v.UnknownBytes))
		buf.PushTag(v.UnknownTag)
	}
}

// DecodeValue reads a Value from d, dispatching on the next tag.
func DecodeValue(d *Decoder) (Value, error) {
	tag, err := d.PeekTag()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagInteger:
		i, err := d.ReadInteger()
		if err != nil {
			return Value{}, err
		}
		return NewInteger(i), nil
	case tagOctetString:
		b, err := d.ReadOctetString()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueOctetString, OctetStringValue: b}, nil
	case tagNull:
		if err := d.ReadNull(); err != nil {
			return Value{}, err
		}
		return NewNull(), nil
	case tagOID:
		o, err := d.ReadOID()
		if err != nil {
			return Value{}, err
		}
		return NewObjectIdentifier(o), nil
	case tagIPAddress:
		a, err := d.ReadIPAddress()
		if err != nil {
			return Value{}, err
		}
		return NewIPAddress(a), nil
	case tagCounter32:
		u, err := d.ReadUnsigned32(tagCounter32)
		if err != nil {
			return Value{}, err
		}
		return NewCounter32(u), nil
	case tagGauge32:
		u, err := d.ReadUnsigned32(tagGauge32)
		if err != nil {
			return Value{}, err
		}
		return NewGauge32(u), nil
	case tagTimeTicks:
		u, err := d.ReadUnsigned32(tagTimeTicks)
		if err != nil {
			return Value{}, err
		}
		return NewTimeTicks(u), nil
	case tagOpaque:
		b, err := d.ReadOpaque()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueOpaque, Opaque: b}, nil
	case tagCounter64:
		u, err := d.ReadCounter64()
		if err != nil {
			return Value{}, err
		}
		return NewCounter64(u), nil
	case tagNoSuchObject:
		if _, err := d.ReadExceptionTag(); err != nil {
			return Value{}, err
		}
		return NewNoSuchObject(), nil
	case tagNoSuchInstance:
		if _, err := d.ReadExceptionTag(); err != nil {
			return Value{}, err
		}
		return NewNoSuchInstance(), nil
	case tagEndOfMibView:
		if _, err := d.ReadExceptionTag(); err != nil {
			return Value{}, err
		}
		return NewEndOfMibView(), nil
	default:
		offset := d.absOffset()
		_, err := d.readByte()
		if err != nil {
			return Value{}, err
		}
		length, err := d.readLength()
		if err != nil {
			return Value{}, err
		}
		content, err := d.readBytes(length)
		if err != nil {
			return Value{}, newDecodeError(offset, DecodeTlvOverflow, "TLV extends past end of data")
		}
		cp := make([]byte, len(content))
		copy(cp, content)
		return Value{Kind: ValueUnknown, UnknownTag: tag, UnknownBytes: cp}, nil
	}
}
