package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// PDU is a request/response/trap/report envelope. For GetBulk, ErrorStatus
// and ErrorIndex instead hold NonRepeaters and MaxRepetitions - the wire
// shape is identical, only the field names differ by PDU type.
type PDU struct {
	Type        PduType
	RequestID   int32
	ErrorStatus int32
	ErrorIndex  int32
	VarBinds    []VarBind
}

// NonRepeaters returns ErrorStatus reinterpreted as GETBULK's non-repeaters
// count. Valid only when Type == PduGetBulk.
func (p PDU) NonRepeaters() int32 { return p.ErrorStatus }

// MaxRepetitions returns ErrorIndex reinterpreted as GETBULK's
// max-repetitions count. Valid only when Type == PduGetBulk.
func (p PDU) MaxRepetitions() int32 { return p.ErrorIndex }

// NewGetBulkPDU builds a GetBulk PDU with the bulk-specific parameters.
func NewGetBulkPDU(requestID int32, nonRepeaters, maxRepetitions int32, varbinds []VarBind) PDU {
	return PDU{
		Type:        PduGetBulk,
		RequestID:   requestID,
		ErrorStatus: nonRepeaters,
		ErrorIndex:  maxRepetitions,
		VarBinds:    varbinds,
	}
}

// Encode writes the PDU's context-constructed-tagged SEQUENCE to buf.
func (p PDU) Encode(buf *EncodeBuf) {
	buf.PushConstructed(byte(p.Type), func(buf *EncodeBuf) {
		EncodeVarBindList(buf, p.VarBinds)
		buf.PushInteger(p.ErrorIndex)
		buf.PushInteger(p.ErrorStatus)
		buf.PushInteger(p.RequestID)
	})
}

// DecodePDU reads a PDU whose tag matches one of the known PduType values.
func DecodePDU(d *Decoder) (PDU, error) {
	offset := d.absOffset()
	tag, err := d.PeekTag()
	if err != nil {
		return PDU{}, err
	}
	if !isKnownPduType(tag) {
		return PDU{}, newDecodeError(offset, DecodeUnknownPduType, "unrecognized PDU tag")
	}
	// Re-use readTLV's tag/length machinery via a constructed-tag reader.
	seq, err := readConstructed(d, tag)
	if err != nil {
		return PDU{}, err
	}
	requestID, err := seq.ReadInteger()
	if err != nil {
		return PDU{}, err
	}
	errorStatus, err := seq.ReadInteger()
	if err != nil {
		return PDU{}, err
	}
	errorIndex, err := seq.ReadInteger()
	if err != nil {
		return PDU{}, err
	}
	varbinds, err := DecodeVarBindList(seq)
	if err != nil {
		return PDU{}, err
	}
	return PDU{
		Type:        PduType(tag),
		RequestID:   requestID,
		ErrorStatus: errorStatus,
		ErrorIndex:  errorIndex,
		VarBinds:    varbinds,
	}, nil
}

// readConstructed is ReadSequence generalized to an arbitrary constructed
// tag (PDUs use context-constructed tags 0xA0..0xA8, not the universal
// SEQUENCE tag 0x30).
func readConstructed(d *Decoder, expectedTag byte) (*Decoder, error) {
	offset := d.absOffset()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if tag != expectedTag {
		return nil, newDecodeError(offset, DecodeUnexpectedTag, "unexpected constructed tag")
	}
	length, err := d.readLength()
	if err != nil {
		return nil, err
	}
	content, err := d.readBytes(length)
	if err != nil {
		return nil, newDecodeError(offset, DecodeTlvOverflow, "PDU extends past end of data")
	}
	return newDecoderAt(content, d.base+d.pos-length), nil
}
