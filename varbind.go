package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import "fmt"

// VarBind is a variable binding: an (OID, Value) pair.
//
// Grounded on original_source/src/varbind.rs.
type VarBind struct {
	OID   OID
	Value Value
}

// NewVarBind pairs oid with value.
func NewVarBind(oid OID, value Value) VarBind {
	return VarBind{OID: oid, Value: value}
}

// NullVarBind builds a VarBind with a NULL value, the shape used for GET
// request varbinds.
func NullVarBind(oid OID) VarBind {
	return VarBind{OID: oid, Value: NewNull()}
}

func (vb VarBind) String() string {
	return fmt.Sprintf("%s = %s", vb.OID, vb.Value)
}

// Encode writes vb's BER encoding (a SEQUENCE of OID then Value) to buf.
func (vb VarBind) Encode(buf *EncodeBuf) {
	buf.PushSequence(func(buf *EncodeBuf) {
		vb.Value.Encode(buf)
		buf.PushOID(vb.OID)
	})
}

// EncodedSize returns the exact encoded size of vb in bytes.
func (vb VarBind) EncodedSize() int {
	buf := NewEncodeBuf()
	vb.Encode(buf)
	return buf.Len()
}

// DecodeVarBind reads a VarBind from d.
func DecodeVarBind(d *Decoder) (VarBind, error) {
	seq, err := d.ReadSequence()
	if err != nil {
		return VarBind{}, err
	}
	oid, err := seq.ReadOID()
	if err != nil {
		return VarBind{}, err
	}
	value, err := DecodeValue(seq)
	if err != nil {
		return VarBind{}, err
	}
	return VarBind{OID: oid, Value: value}, nil
}

// EncodeVarBindList writes a SEQUENCE of VarBind SEQUENCEs to buf.
func EncodeVarBindList(buf *EncodeBuf, varbinds []VarBind) {
	buf.PushSequence(func(buf *EncodeBuf) {
		for i := len(varbinds) - 1; i >= 0; i-- {
			varbinds[i].Encode(buf)
		}
	})
}

// DecodeVarBindList reads a VarBind list from d.
func DecodeVarBindList(d *Decoder) ([]VarBind, error) {
	seq, err := d.ReadSequence()
	if err != nil {
		return nil, err
	}
	var out []VarBind
	for !seq.IsEmpty() {
		vb, err := DecodeVarBind(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, vb)
	}
	return out, nil
}

// EncodeNullVarBinds writes a list of OIDs as VarBinds with NULL values,
// the shape of a GET request's varbind list.
func EncodeNullVarBinds(buf *EncodeBuf, oids []OID) {
	buf.PushSequence(func(buf *EncodeBuf) {
		for i := len(oids) - 1; i >= 0; i-- {
			oid := oids[i]
			buf.PushSequence(func(buf *EncodeBuf) {
				buf.PushNull()
				buf.PushOID(oid)
			})
		}
	})
}
