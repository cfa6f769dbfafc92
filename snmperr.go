package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"fmt"
	"net"
	"time"
)

// Kind identifies the category of an *Error. It is comparable so callers
// can switch on it, but the set of values may grow in future releases -
// callers should not assume it is exhaustive.
type Kind int

const (
	KindIO Kind = iota
	KindTimeout
	KindSnmp
	KindInvalidOID
	KindDecode
	KindEncode
	KindRequestIDMismatch
	KindVersionMismatch
	KindMessageTooLarge
	KindUnknownEngineID
	KindNotInTimeWindow
	KindAuthenticationFailed
	KindDecryptionFailed
	KindEncryptionFailed
	KindInvalidCommunity
	KindNonIncreasingOID
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindSnmp:
		return "snmp"
	case KindInvalidOID:
		return "invalid_oid"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindRequestIDMismatch:
		return "request_id_mismatch"
	case KindVersionMismatch:
		return "version_mismatch"
	case KindMessageTooLarge:
		return "message_too_large"
	case KindUnknownEngineID:
		return "unknown_engine_id"
	case KindNotInTimeWindow:
		return "not_in_time_window"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindDecryptionFailed:
		return "decryption_failed"
	case KindEncryptionFailed:
		return "encryption_failed"
	case KindInvalidCommunity:
		return "invalid_community"
	case KindNonIncreasingOID:
		return "non_increasing_oid"
	default:
		return "unknown"
	}
}

// Error is the single error type returned throughout this module. Use Kind
// to branch, and the kind-specific fields (valid only for that kind) for
// detail. Error implements Unwrap so errors.Is/errors.As work against a
// wrapped cause (e.g. a *net.OpError behind KindIO).
type Error struct {
	Kind   Kind
	Target net.Addr
	Cause  error

	// KindTimeout
	Elapsed time.Duration
	RequestID int32
	Retries   int

	// KindSnmp
	Status ErrorStatus
	Index  int32
	OID    *OID

	// KindInvalidOID / KindDecode / KindEncode
	SubKind string
	Offset  int

	// KindRequestIDMismatch
	ExpectedID int32
	ActualID   int32

	// KindVersionMismatch
	ExpectedVersion Version
	ActualVersion   Version

	// KindMessageTooLarge
	Size int
	Max  int

	// KindNonIncreasingOID
	Previous OID
	Current  OID
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		return fmt.Sprintf("snmp: i/o error: %v", e.Cause)
	case KindTimeout:
		return fmt.Sprintf("snmp: request %d timed out after %v (%d retries)", e.RequestID, e.Elapsed, e.Retries)
	case KindSnmp:
		return fmt.Sprintf("snmp: agent returned %s at index %d", e.Status, e.Index)
	case KindInvalidOID:
		return fmt.Sprintf("snmp: invalid oid: %s", e.SubKind)
	case KindDecode:
		return fmt.Sprintf("snmp: decode error at offset %d: %s", e.Offset, e.SubKind)
	case KindEncode:
		return fmt.Sprintf("snmp: encode error: %s", e.SubKind)
	case KindRequestIDMismatch:
		return fmt.Sprintf("snmp: request id mismatch: expected %d, got %d", e.ExpectedID, e.ActualID)
	case KindVersionMismatch:
		return fmt.Sprintf("snmp: version mismatch: expected %v, got %v", e.ExpectedVersion, e.ActualVersion)
	case KindMessageTooLarge:
		return fmt.Sprintf("snmp: message size %d exceeds maximum %d", e.Size, e.Max)
	case KindUnknownEngineID:
		return "snmp: unknown authoritative engine id"
	case KindNotInTimeWindow:
		return "snmp: message outside the USM time window"
	case KindAuthenticationFailed:
		return fmt.Sprintf("snmp: authentication failed: %s", e.SubKind)
	case KindDecryptionFailed:
		return fmt.Sprintf("snmp: decryption failed: %s", e.SubKind)
	case KindEncryptionFailed:
		return fmt.Sprintf("snmp: encryption failed: %s", e.SubKind)
	case KindInvalidCommunity:
		return "snmp: invalid community"
	case KindNonIncreasingOID:
		return fmt.Sprintf("snmp: non-increasing oid: %s is not greater than %s", e.Current, e.Previous)
	default:
		return "snmp: unknown error"
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newDecodeError(offset int, sub string, detail string) *Error {
	return &Error{Kind: KindDecode, Offset: offset, SubKind: sub + ": " + detail}
}

func newEncodeError(sub string) *Error {
	return &Error{Kind: KindEncode, SubKind: sub}
}

func newOidError(sub string, detail string) *Error {
	return &Error{Kind: KindInvalidOID, SubKind: sub + ": " + detail}
}

// Decode error sub-kind labels, mirroring the DecodeErrorKind taxonomy.
const (
	DecodeUnexpectedTag        = "unexpected_tag"
	DecodeTruncatedData        = "truncated_data"
	DecodeInvalidLength        = "invalid_length"
	DecodeIndefiniteLength     = "indefinite_length"
	DecodeIntegerOverflow      = "integer_overflow"
	DecodeZeroLengthInteger    = "zero_length_integer"
	DecodeUnknownVersion       = "unknown_version"
	DecodeUnknownPduType       = "unknown_pdu_type"
	DecodeConstructedOctets    = "constructed_octet_string"
	DecodeMissingPdu           = "missing_pdu"
	DecodeInvalidMsgFlags      = "invalid_msg_flags"
	DecodeUnknownSecModel      = "unknown_security_model"
	DecodeMsgMaxSizeTooSmall   = "msg_max_size_too_small"
	DecodeInvalidNull          = "invalid_null"
	DecodeUnexpectedEncryption = "unexpected_encryption"
	DecodeExpectedEncryption   = "expected_encryption"
	DecodeInvalidIPAddrLen     = "invalid_ip_address_length"
	DecodeLengthTooLong        = "length_too_long"
	DecodeLengthExceedsMax     = "length_exceeds_max"
	DecodeInteger64TooLong     = "integer64_too_long"
	DecodeEmptyResponse        = "empty_response"
	DecodeTlvOverflow          = "tlv_overflow"
	DecodeInsufficientData     = "insufficient_data"
)

// OID error sub-kind labels, mirroring the OidErrorKind taxonomy.
const (
	OidEmpty                  = "empty"
	OidInvalidArc             = "invalid_arc"
	OidInvalidFirstArc        = "invalid_first_arc"
	OidInvalidSecondArc       = "invalid_second_arc"
	OidTooShort               = "too_short"
	OidTooManyArcs            = "too_many_arcs"
	OidSubidentifierOverflow  = "subidentifier_overflow"
)

// Encode error sub-kind labels, mirroring the EncodeErrorKind taxonomy.
const (
	EncodeNoSecurityConfig  = "no_security_config"
	EncodeEngineNotDiscov   = "engine_not_discovered"
	EncodeKeysNotDerived    = "keys_not_derived"
	EncodeMissingAuthKey    = "missing_auth_key"
	EncodeNoPrivKey         = "no_priv_key"
	EncodeMissingAuthParams = "missing_auth_params"
)

// ErrorStatus is the RFC 3416 error-status code carried in every Response
// PDU. The named constants cover 0..18; Unknown values round-trip through
// the raw integer.
type ErrorStatus int32

const (
	NoError ErrorStatus = iota
	TooBig
	NoSuchName
	BadValue
	ReadOnly
	GenErr
	NoAccess
	WrongType
	WrongLength
	WrongEncoding
	WrongValue
	NoCreation
	InconsistentValue
	ResourceUnavailable
	CommitFailed
	UndoFailed
	AuthorizationError
	NotWritable
	InconsistentName
)

var errorStatusNames = [...]string{
	"noError", "tooBig", "noSuchName", "badValue", "readOnly", "genErr",
	"noAccess", "wrongType", "wrongLength", "wrongEncoding", "wrongValue",
	"noCreation", "inconsistentValue", "resourceUnavailable", "commitFailed",
	"undoFailed", "authorizationError", "notWritable", "inconsistentName",
}

func (s ErrorStatus) String() string {
	if int(s) >= 0 && int(s) < len(errorStatusNames) {
		return errorStatusNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}
