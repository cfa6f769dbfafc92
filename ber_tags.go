package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// BER tag constants for the SNMP subset of X.690.
const (
	tagInteger        byte = 0x02
	tagOctetString    byte = 0x04
	tagNull           byte = 0x05
	tagOID            byte = 0x06
	tagSequence       byte = 0x30
	tagIPAddress      byte = 0x40
	tagCounter32      byte = 0x41
	tagGauge32        byte = 0x42
	tagTimeTicks      byte = 0x43
	tagOpaque         byte = 0x44
	tagCounter64      byte = 0x46
	tagNoSuchObject   byte = 0x80
	tagNoSuchInstance byte = 0x81
	tagEndOfMibView   byte = 0x82
)

// PduType identifies the kind of PDU carried in a Message.
type PduType byte

const (
	PduGet      PduType = 0xA0
	PduGetNext  PduType = 0xA1
	PduResponse PduType = 0xA2
	PduSet      PduType = 0xA3
	PduTrapV1   PduType = 0xA4
	PduGetBulk  PduType = 0xA5
	PduInform   PduType = 0xA6
	PduTrapV2   PduType = 0xA7
	PduReport   PduType = 0xA8
)

func (t PduType) String() string {
	switch t {
	case PduGet:
		return "GetRequest"
	case PduGetNext:
		return "GetNextRequest"
	case PduResponse:
		return "GetResponse"
	case PduSet:
		return "SetRequest"
	case PduTrapV1:
		return "TrapV1"
	case PduGetBulk:
		return "GetBulkRequest"
	case PduInform:
		return "InformRequest"
	case PduTrapV2:
		return "TrapV2"
	case PduReport:
		return "Report"
	default:
		return "Unknown"
	}
}

func isKnownPduType(t byte) bool {
	switch PduType(t) {
	case PduGet, PduGetNext, PduResponse, PduSet, PduTrapV1, PduGetBulk, PduInform, PduTrapV2, PduReport:
		return true
	default:
		return false
	}
}

// Version identifies the SNMP protocol version carried in a message.
type Version int32

const (
	Version1  Version = 0
	Version2c Version = 1
	Version3  Version = 3
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "1"
	case Version2c:
		return "2c"
	case Version3:
		return "3"
	default:
		return "unknown"
	}
}

// v3 Report OIDs, surfaced to clients as diagnostics (engine discovery,
// auth failures, time mismatches).
var (
	oidUsmStatsUnsupportedSecLevels = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 1, 0)
	oidUsmStatsNotInTimeWindows     = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 2, 0)
	oidUsmStatsUnknownUserNames     = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 3, 0)
	oidUsmStatsUnknownEngineIDs     = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 4, 0)
	oidUsmStatsWrongDigests         = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 5, 0)
	oidUsmStatsDecryptionErrors     = NewOID(1, 3, 6, 1, 6, 3, 15, 1, 1, 6, 0)
)

// MinMsgMaxSize is the RFC 3412 floor for msgMaxSize.
const MinMsgMaxSize = 484

// MaxBerLength is the cap on a single BER length field's decoded value.
const MaxBerLength = 16 * 1024 * 1024
