package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"sync"
	"time"
)

// engineTimeWindow is the RFC 3414 §3.2 step 7.b time-window tolerance: a
// message is accepted only if the receiver's notion of the sender's engine
// time is within this many seconds of the value carried in the message.
const engineTimeWindow = 150

// engineState is what a client or agent remembers about a peer's
// authoritative SNMP engine: its id, and the boots/time pair needed to
// detect replay and to build a locally-adjusted clock.
//
// Grounded on spec.md §4.4 (engine discovery) and original_source's
// engine-cache notion described in DESIGN.md's v3/mod.rs survey notes.
type engineState struct {
	EngineID []byte

	EngineBoots int32
	EngineTime  int32
	// receivedAt is the local monotonic time at which EngineTime was last
	// observed, letting LocalTime() extrapolate without re-probing.
	receivedAt time.Time
}

// LocalTime returns engine's current estimated time, given how much wall
// time has elapsed locally since it was last observed.
func (e engineState) LocalTime() int32 {
	elapsed := int32(time.Since(e.receivedAt).Seconds())
	return e.EngineTime + elapsed
}

// EngineCache maps a peer address to its discovered engine state, so a
// client reusing one transport for many requests to the same agent only
// pays the discovery round trip once. Safe for concurrent use.
type EngineCache struct {
	mu      sync.RWMutex
	engines map[string]*engineState
}

// NewEngineCache returns an empty cache.
func NewEngineCache() *EngineCache {
	return &EngineCache{engines: make(map[string]*engineState)}
}

// Lookup returns the cached engine state for addr, if any.
func (c *EngineCache) Lookup(addr string) (engineState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.engines[addr]
	if !ok {
		return engineState{}, false
	}
	return *st, true
}

// Store records or updates addr's engine state. If a later EngineBoots is
// observed, or the same boots with a later EngineTime, the record is
// refreshed; non-increasing updates to either counter are rejected as a
// replay per RFC 3414 §3.2 step 7.a and silently ignored.
func (c *EngineCache) Store(addr string, engineID []byte, boots, engTime int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.engines[addr]
	if !ok {
		c.engines[addr] = &engineState{
			EngineID:    append([]byte(nil), engineID...),
			EngineBoots: boots,
			EngineTime:  engTime,
			receivedAt:  time.Now(),
		}
		return
	}
	if boots < st.EngineBoots {
		return
	}
	if boots == st.EngineBoots && engTime <= st.EngineTime {
		return
	}
	st.EngineID = append([]byte(nil), engineID...)
	st.EngineBoots = boots
	st.EngineTime = engTime
	st.receivedAt = time.Now()
}

// Forget drops addr's cached state, so the next request to addr runs engine
// discovery again.
func (c *EngineCache) Forget(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.engines, addr)
}

// discoveryProbe builds the blank, unauthenticated engine-discovery message
// RFC 3414 §4 describes: NoAuthNoPriv with Reportable set, an empty
// security name, and a GetRequest over an empty varbind list. The
// authoritative engine is expected to answer with a Report PDU carrying its
// engine id, boots and time in the security parameters.
func discoveryProbe(msgID, requestID int32) V3Message {
	return V3Message{
		MsgID:      msgID,
		MsgMaxSize: MinMsgMaxSize,
		MsgFlags:   FlagReportable | NoAuthNoPriv,
		SecurityParameters: USMSecurityParameters{
			UserName: nil,
		},
		ScopedPDU: ScopedPDU{
			PDU: PDU{Type: PduGet, RequestID: requestID},
		},
	}
}

// checkTimeliness applies RFC 3414 §3.2 step 7.b: a message from a known
// engine must carry a time within the window of what's locally recorded,
// unless it is itself updating that record forward.
func checkTimeliness(local engineState, msgBoots, msgTime int32) bool {
	if msgBoots < local.EngineBoots {
		return false
	}
	if msgBoots > local.EngineBoots {
		return true
	}
	delta := msgTime - local.EngineTime
	if delta < 0 {
		delta = -delta
	}
	return delta <= engineTimeWindow
}
