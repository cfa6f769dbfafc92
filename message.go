package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Message is a v1/v2c message: version, community, and PDU.
type Message struct {
	Version   Version
	Community []byte
	PDU       PDU
}

// Encode writes the v1/v2c message's outer SEQUENCE to buf.
func (m Message) Encode(buf *EncodeBuf) {
	buf.PushSequence(func(buf *EncodeBuf) {
		m.PDU.Encode(buf)
		buf.PushOctetString(m.Community)
		buf.PushInteger(int32(m.Version))
	})
}

// DecodeMessage reads a v1/v2c message. The caller must have already
// sniffed the version (see PeekVersion) and dispatched here only for
// Version1/Version2c.
func DecodeMessage(d *Decoder) (Message, error) {
	seq, err := d.ReadSequence()
	if err != nil {
		return Message{}, err
	}
	version, err := seq.ReadInteger()
	if err != nil {
		return Message{}, err
	}
	community, err := seq.ReadOctetString()
	if err != nil {
		return Message{}, err
	}
	pdu, err := DecodePDU(seq)
	if err != nil {
		return Message{}, err
	}
	return Message{Version: Version(version), Community: community, PDU: pdu}, nil
}

// PeekVersion sniffs the SNMP version from a raw wire message without
// fully decoding it: the first INTEGER inside the outer SEQUENCE.
func PeekVersion(data []byte) (Version, error) {
	d := NewDecoder(data)
	seq, err := d.ReadSequence()
	if err != nil {
		return 0, err
	}
	v, err := seq.ReadInteger()
	if err != nil {
		return 0, err
	}
	switch Version(v) {
	case Version1, Version2c, Version3:
		return Version(v), nil
	default:
		return 0, newDecodeError(0, DecodeUnknownVersion, "unrecognized SNMP version")
	}
}
