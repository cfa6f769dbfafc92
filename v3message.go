package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import "fmt"

// MsgFlags describes the v3 authentication/privacy/reportable bits,
// matching gosnmp's own SnmpV3MsgFlags bit layout.
type MsgFlags uint8

const (
	NoAuthNoPriv   MsgFlags = 0x0
	FlagAuthNoPriv MsgFlags = 0x1
	FlagAuthPriv   MsgFlags = 0x3
	FlagReportable MsgFlags = 0x4
)

func (f MsgFlags) Auth() bool       { return f&FlagAuthNoPriv != 0 }
func (f MsgFlags) Priv() bool       { return f&FlagAuthPriv == FlagAuthPriv }
func (f MsgFlags) Reportable() bool { return f&FlagReportable != 0 }

// UserSecurityModel is the only security model this library implements for
// v3 (value 3, per RFC 3414).
const UserSecurityModel int32 = 3

// USMSecurityParameters carries the v3 USM security parameters block.
type USMSecurityParameters struct {
	AuthoritativeEngineID []byte
	EngineBoots           int32
	EngineTime            int32
	UserName              []byte
	AuthParams            []byte
	PrivParams            []byte
}

// Copy returns a deep copy, so per-request mutation (e.g. patching
// AuthParams after hashing) never aliases a shared template.
func (sp USMSecurityParameters) Copy() USMSecurityParameters {
	cp := sp
	cp.AuthoritativeEngineID = append([]byte(nil), sp.AuthoritativeEngineID...)
	cp.UserName = append([]byte(nil), sp.UserName...)
	cp.AuthParams = append([]byte(nil), sp.AuthParams...)
	cp.PrivParams = append([]byte(nil), sp.PrivParams...)
	return cp
}

func (sp USMSecurityParameters) encode(buf *EncodeBuf) {
	buf.PushSequence(func(buf *EncodeBuf) {
		buf.PushOctetString(sp.PrivParams)
		buf.PushOctetString(sp.AuthParams)
		buf.PushOctetString(sp.UserName)
		buf.PushInteger(sp.EngineTime)
		buf.PushInteger(sp.EngineBoots)
		buf.PushOctetString(sp.AuthoritativeEngineID)
	})
}

func decodeUSMSecurityParameters(d *Decoder) (USMSecurityParameters, error) {
	seq, err := d.ReadSequence()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	engineID, err := seq.ReadOctetString()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	boots, err := seq.ReadInteger()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	engTime, err := seq.ReadInteger()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	userName, err := seq.ReadOctetString()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	authParams, err := seq.ReadOctetString()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	privParams, err := seq.ReadOctetString()
	if err != nil {
		return USMSecurityParameters{}, err
	}
	return USMSecurityParameters{
		AuthoritativeEngineID: engineID,
		EngineBoots:           boots,
		EngineTime:            engTime,
		UserName:              userName,
		AuthParams:            authParams,
		PrivParams:            privParams,
	}, nil
}

func (sp USMSecurityParameters) validate() error {
	if sp.EngineBoots < 0 {
		return newDecodeError(0, DecodeInvalidLength, "negative engine boots")
	}
	if sp.EngineTime < 0 {
		return newDecodeError(0, DecodeInvalidLength, "negative engine time")
	}
	if len(sp.PrivParams) != 0 && len(sp.PrivParams) != 8 {
		return newDecodeError(0, DecodeInvalidLength, "priv params must be empty or 8 bytes")
	}
	return nil
}

// ScopedPDU is the v3 inner envelope: context engine id, context name, and
// the PDU itself. When privacy is in effect it travels encrypted as an
// OCTET STRING (see v3priv.go); this struct represents its plaintext form.
type ScopedPDU struct {
	ContextEngineID []byte
	ContextName     []byte
	PDU             PDU
}

func (s ScopedPDU) encode() []byte {
	buf := NewEncodeBuf()
	buf.PushSequence(func(buf *EncodeBuf) {
		s.PDU.Encode(buf)
		buf.PushOctetString(s.ContextName)
		buf.PushOctetString(s.ContextEngineID)
	})
	return buf.Finish()
}

func decodeScopedPDU(data []byte) (ScopedPDU, error) {
	d := NewDecoder(data)
	seq, err := d.ReadSequence()
	if err != nil {
		return ScopedPDU{}, err
	}
	engineID, err := seq.ReadOctetString()
	if err != nil {
		return ScopedPDU{}, err
	}
	contextName, err := seq.ReadOctetString()
	if err != nil {
		return ScopedPDU{}, err
	}
	pdu, err := DecodePDU(seq)
	if err != nil {
		return ScopedPDU{}, err
	}
	return ScopedPDU{ContextEngineID: engineID, ContextName: contextName, PDU: pdu}, nil
}

// V3Message is a full SNMPv3 message: global header data, USM security
// parameters, and the scoped PDU.
//
// Invariant: the priv flag bit implies the auth flag bit (checked by
// validate()).
type V3Message struct {
	MsgID              int32
	MsgMaxSize         int32
	MsgFlags           MsgFlags
	SecurityParameters USMSecurityParameters
	ScopedPDU          ScopedPDU
}

func (m V3Message) validate() error {
	if m.MsgID < 0 {
		return newEncodeError("msgID must be non-negative")
	}
	if m.MsgMaxSize < MinMsgMaxSize {
		return newDecodeError(0, DecodeMsgMaxSizeTooSmall, fmt.Sprintf("msgMaxSize %d below minimum %d", m.MsgMaxSize, MinMsgMaxSize))
	}
	if m.MsgFlags&(FlagAuthPriv&^FlagAuthNoPriv) != 0 && !m.MsgFlags.Auth() {
		return newDecodeError(0, DecodeInvalidMsgFlags, "privacy without authentication")
	}
	return nil
}

// v3Credentials bundles what's needed to authenticate/encrypt one outbound
// message or verify/decrypt one inbound message, keeping V3Message itself a
// plain data holder independent of any particular user's key material.
type v3Credentials struct {
	Auth     AuthProtocol
	AuthKey  []byte
	Priv     PrivProtocol
	PrivKey  []byte
	PrivSalt []byte // per-message salt/IV material; caller picks a fresh one per send
}

// Encode serializes m to the wire, applying privacy (if creds.Priv is set)
// and then authentication (if creds.Auth is set) per RFC 3414 §3.1's
// encrypt-then-authenticate ordering.
//
// Grounded on the teacher's marshalSnmpV3ScopedPDU (encrypt scoped PDU,
// wrap in OCTET STRING) followed by authenticate (HMAC over the whole
// message with AuthParams zeroed, then patched in place) - both formerly
// in v3.go.
func (m V3Message) Encode(creds v3Credentials) ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	scopedPlain := m.ScopedPDU.encode()

	sp := m.SecurityParameters
	var scopedField []byte
	if creds.Priv != NoPriv && m.MsgFlags.Priv() {
		ciphertext, err := creds.Priv.Encrypt(creds.PrivKey, uint32(sp.EngineBoots), uint32(sp.EngineTime), creds.PrivSalt, scopedPlain)
		if err != nil {
			return nil, err
		}
		sp.PrivParams = creds.PrivSalt
		octetBuf := NewEncodeBuf()
		octetBuf.PushOctetString(ciphertext)
		scopedField = octetBuf.Finish()
	} else {
		scopedField = scopedPlain
	}

	macLen := 0
	if creds.Auth != NoAuth && m.MsgFlags.Auth() {
		macLen = creds.Auth.MacLen()
		sp.AuthParams = make([]byte, macLen)
	}

	usmBuf := NewEncodeBuf()
	sp.encode(usmBuf)
	usmBytes := usmBuf.Finish()

	outer := NewEncodeBuf()
	outer.PushSequence(func(outer *EncodeBuf) {
		outer.PushBytes(scopedField)
		outer.PushOctetString(usmBytes)
		outer.PushInteger(UserSecurityModel)
		outer.PushOctetString([]byte{byte(m.MsgFlags)})
		outer.PushInteger(m.MsgMaxSize)
		outer.PushInteger(m.MsgID)
		outer.PushInteger(int32(Version3))
	})
	msg := outer.Finish()

	if macLen == 0 {
		return msg, nil
	}
	_, authOffset, err := locateUSMAuthParamsOffset(msg)
	if err != nil {
		return nil, err
	}
	creds.Auth.hmacPlaceholderPatch(creds.AuthKey, msg, authOffset)
	return msg, nil
}

// locateUSMAuthParamsOffset decodes just far enough into a v3 message to
// find the absolute byte offset of the AuthParams OCTET STRING's content,
// so it can be patched in place after the message (with AuthParams zeroed)
// has already been fully serialized.
func locateUSMAuthParamsOffset(msg []byte) (length int, offset int, err error) {
	d := NewDecoder(msg)
	outer, err := d.ReadSequence()
	if err != nil {
		return 0, 0, err
	}
	if _, err := outer.ReadInteger(); err != nil { // version
		return 0, 0, err
	}
	if _, err := outer.ReadSequence(); err != nil { // global header data
		return 0, 0, err
	}
	if _, err := outer.ReadInteger(); err != nil { // securityModel
		return 0, 0, err
	}
	_, usmOffset, err := outer.ReadOctetStringWithOffset()
	if err != nil {
		return 0, 0, err
	}
	usmDecoder, err := decoderAtOffset(msg, usmOffset)
	if err != nil {
		return 0, 0, err
	}
	usmSeq, err := usmDecoder.ReadSequence()
	if err != nil {
		return 0, 0, err
	}
	if _, err := usmSeq.ReadOctetString(); err != nil { // engine id
		return 0, 0, err
	}
	if _, err := usmSeq.ReadInteger(); err != nil { // boots
		return 0, 0, err
	}
	if _, err := usmSeq.ReadInteger(); err != nil { // time
		return 0, 0, err
	}
	if _, err := usmSeq.ReadOctetString(); err != nil { // user name
		return 0, 0, err
	}
	authParams, authOffset, err := usmSeq.ReadOctetStringWithOffset()
	if err != nil {
		return 0, 0, err
	}
	return len(authParams), authOffset, nil
}

// decoderAtOffset builds a Decoder over msg starting at an absolute offset
// already known to be correct (from a sibling ReadOctetStringWithOffset
// call), so USM fields can be walked with offsets that remain meaningful
// against the original message slice.
func decoderAtOffset(msg []byte, offset int) (*Decoder, error) {
	if offset < 0 || offset > len(msg) {
		return nil, newDecodeError(offset, DecodeInsufficientData, "offset out of range")
	}
	return newDecoderAt(msg[offset:], offset), nil
}

// DecodeV3Envelope parses a v3 message's header, security model, and USM
// security parameters without decrypting or authenticating the scoped PDU,
// returning the still-possibly-encrypted scoped PDU bytes alongside. Used
// both for full decode (after verifying/decrypting) and for lightweight
// request-id correlation (via MsgID, which is visible regardless of
// privacy).
func DecodeV3Envelope(data []byte) (hdr V3Message, scopedPDUField []byte, err error) {
	d := NewDecoder(data)
	outer, err := d.ReadSequence()
	if err != nil {
		return V3Message{}, nil, err
	}
	version, err := outer.ReadInteger()
	if err != nil {
		return V3Message{}, nil, err
	}
	if Version(version) != Version3 {
		return V3Message{}, nil, newDecodeError(0, DecodeUnknownVersion, "not a v3 message")
	}
	global, err := outer.ReadSequence()
	if err != nil {
		return V3Message{}, nil, err
	}
	msgID, err := global.ReadInteger()
	if err != nil {
		return V3Message{}, nil, err
	}
	msgMaxSize, err := global.ReadInteger()
	if err != nil {
		return V3Message{}, nil, err
	}
	flagBytes, err := global.ReadOctetString()
	if err != nil {
		return V3Message{}, nil, err
	}
	if len(flagBytes) != 1 {
		return V3Message{}, nil, newDecodeError(0, DecodeInvalidMsgFlags, "msgFlags must be one byte")
	}
	if _, err := global.ReadInteger(); err != nil { // securityModel
		return V3Message{}, nil, err
	}
	usmBytes, err := outer.ReadOctetString()
	if err != nil {
		return V3Message{}, nil, err
	}
	sp, err := decodeUSMSecurityParameters(NewDecoder(usmBytes))
	if err != nil {
		return V3Message{}, nil, err
	}
	if err := sp.validate(); err != nil {
		return V3Message{}, nil, err
	}
	scopedField := data[outer.absOffset():]

	m := V3Message{
		MsgID:              msgID,
		MsgMaxSize:         msgMaxSize,
		MsgFlags:           MsgFlags(flagBytes[0]),
		SecurityParameters: sp,
	}
	if err := m.validate(); err != nil {
		return V3Message{}, nil, err
	}
	return m, scopedField, nil
}

// DecodeV3Message fully decodes a v3 message, verifying authentication and
// decrypting the scoped PDU if creds specify the matching protocols.
func DecodeV3Message(data []byte, creds v3Credentials) (V3Message, error) {
	hdr, scopedField, err := DecodeV3Envelope(data)
	if err != nil {
		return V3Message{}, err
	}

	if hdr.MsgFlags.Auth() {
		if creds.Auth == NoAuth {
			return V3Message{}, newDecodeError(0, DecodeExpectedEncryption, "message requires authentication but no auth protocol configured")
		}
		zeroed := append([]byte(nil), data...)
		_, authOffset, err := locateUSMAuthParamsOffset(zeroed)
		if err != nil {
			return V3Message{}, err
		}
		authParams := hdr.SecurityParameters.AuthParams
		macLen := len(authParams)
		for i := 0; i < macLen; i++ {
			zeroed[authOffset+i] = 0
		}
		if !creds.Auth.verifyHMAC(creds.AuthKey, zeroed, authParams) {
			return V3Message{}, &Error{Kind: KindAuthenticationFailed, SubKind: "hmac mismatch"}
		}
	}

	var scopedPlain []byte
	if hdr.MsgFlags.Priv() {
		if creds.Priv == NoPriv {
			return V3Message{}, newDecodeError(0, DecodeExpectedEncryption, "message requires privacy but no priv protocol configured")
		}
		sd := NewDecoder(scopedField)
		ciphertext, err := sd.ReadOctetString()
		if err != nil {
			return V3Message{}, err
		}
		sp := hdr.SecurityParameters
		scopedPlain, err = creds.Priv.Decrypt(creds.PrivKey, uint32(sp.EngineBoots), uint32(sp.EngineTime), sp.PrivParams, ciphertext)
		if err != nil {
			return V3Message{}, err
		}
	} else {
		scopedPlain = scopedField
	}

	scoped, err := decodeScopedPDU(scopedPlain)
	if err != nil {
		return V3Message{}, err
	}
	hdr.ScopedPDU = scoped
	return hdr, nil
}
