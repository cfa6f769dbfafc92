package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"context"
	"crypto/rand"
	"net"
	"time"
)

// v3UserConfig is one configured USM user's localized key material, ready
// to authenticate/decrypt requests and authenticate/encrypt responses.
// Keys are localized once, at AddUser time, against the agent's own fixed
// engineID - unlike a Client, an Agent is always its own authoritative
// engine, so there is no discovery round trip to wait on.
type v3UserConfig struct {
	name    string
	auth    AuthProtocol
	authKey []byte
	priv    PrivProtocol
	privKey []byte
}

// Agent dispatches inbound requests to registered Handlers, after
// resolving the sender's security identity (community or USM user) and
// checking VACM access for every OID touched.
//
// Grounded on original_source/src/agent/mod.rs's Agent (version sniff,
// security resolution, RequestContext construction, OidTable dispatch).
type Agent struct {
	transport AgentTransport
	table     *OidTable
	vacm      *Config

	communities map[string]string // community -> securityName
	users       map[string]v3UserConfig

	engineID    []byte
	engineBoots int32
	startedAt   time.Time

	logger  *Logger
	metrics *Metrics
}

// NewAgent builds an Agent serving table's handlers under vacm's access
// rules, identifying itself to v3 clients with engineID.
func NewAgent(transport AgentTransport, table *OidTable, vacm *Config, engineID []byte) *Agent {
	return &Agent{
		transport:   transport,
		table:       table,
		vacm:        vacm,
		communities: make(map[string]string),
		users:       make(map[string]v3UserConfig),
		engineID:    append([]byte(nil), engineID...),
		engineBoots: 1,
		startedAt:   time.Now(),
	}
}

// WithLogger attaches a Logger; nil disables logging.
func (a *Agent) WithLogger(l *Logger) *Agent {
	a.logger = l
	return a
}

// WithMetrics attaches a Metrics bundle; nil disables metrics.
func (a *Agent) WithMetrics(m *Metrics) *Agent {
	a.metrics = m
	return a
}

// AddCommunity registers a v1/v2c community string and the VACM security
// name it maps to.
func (a *Agent) AddCommunity(community, securityName string) *Agent {
	a.communities[community] = securityName
	return a
}

// AddUser registers a v3 USM user, localizing its auth/priv keys against
// this agent's engineID immediately.
func (a *Agent) AddUser(userName string, auth AuthProtocol, authPassphrase string, priv PrivProtocol, privPassphrase string) *Agent {
	u := v3UserConfig{name: userName, auth: auth, priv: priv}
	if auth != NoAuth {
		u.authKey = auth.LocalizeKey(authPassphrase, a.engineID)
	}
	if priv != NoPriv {
		u.privKey = KeyExtensionFor(auth, priv, u.authKey, privPassphrase, a.engineID)
	}
	a.users[userName] = u
	return a
}

func (a *Agent) engineTime() int32 {
	return int32(time.Since(a.startedAt).Seconds())
}

// Serve reads datagrams until ctx is done, dispatching each on its own
// goroutine so one slow Handler can't stall the others.
func (a *Agent) Serve(ctx context.Context) error {
	for {
		data, from, err := a.transport.RecvFrom(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warnf("Serve", "", err, "recv failed")
			continue
		}
		go a.handleDatagram(ctx, data, from)
	}
}

func (a *Agent) handleDatagram(ctx context.Context, data []byte, from net.Addr) {
	version, err := PeekVersion(data)
	if err != nil {
		a.logger.Warnf("handleDatagram", from.String(), err, "dropping undecodable message")
		return
	}
	if version == Version3 {
		a.handleV3(ctx, data, from)
		return
	}
	a.handleV1V2c(ctx, data, from, version)
}

func (a *Agent) handleV1V2c(ctx context.Context, data []byte, from net.Addr, version Version) {
	m, err := DecodeMessage(NewDecoder(data))
	if err != nil {
		a.logger.Warnf("handleV1V2c", from.String(), err, "dropping undecodable message")
		return
	}
	securityName, ok := a.communities[string(m.Community)]
	if !ok {
		a.logger.Warnf("handleV1V2c", from.String(), nil, "rejecting unknown community")
		return
	}
	model := SecurityModelSNMPv1
	if version == Version2c {
		model = SecurityModelSNMPv2c
	}
	reqCtx := &RequestContext{
		Source:        from,
		Version:       version,
		SecurityModel: model,
		SecurityName:  securityName,
		SecurityLevel: NoAuthNoPriv,
		RequestID:     m.PDU.RequestID,
		PduType:       m.PDU.Type,
	}
	if a.metrics != nil {
		a.metrics.AgentRequests.WithLabelValues(m.PDU.Type.String()).Inc()
	}
	respPDU := a.dispatchPDU(reqCtx, m.PDU)

	buf := NewEncodeBuf()
	Message{Version: version, Community: m.Community, PDU: respPDU}.Encode(buf)
	if err := a.transport.SendTo(ctx, buf.Finish(), from); err != nil {
		a.logger.Warnf("handleV1V2c", from.String(), err, "send failed")
	}
}

func (a *Agent) handleV3(ctx context.Context, data []byte, from net.Addr) {
	hdr, scopedField, err := DecodeV3Envelope(data)
	if err != nil {
		a.logger.Warnf("handleV3", from.String(), err, "dropping undecodable message")
		return
	}
	if len(hdr.SecurityParameters.UserName) == 0 {
		a.replyDiscovery(ctx, hdr, scopedField, from)
		return
	}
	user, ok := a.users[string(hdr.SecurityParameters.UserName)]
	if !ok {
		a.logger.Warnf("handleV3", from.String(), nil, "rejecting unknown user %q", hdr.SecurityParameters.UserName)
		return
	}

	creds := v3Credentials{Auth: user.auth, AuthKey: user.authKey, Priv: user.priv, PrivKey: user.privKey}
	full, err := DecodeV3Message(data, creds)
	if err != nil {
		a.logger.Warnf("handleV3", from.String(), err, "rejecting message for user %q", user.name)
		return
	}
	scoped := full.ScopedPDU

	reqCtx := &RequestContext{
		Source:        from,
		Version:       Version3,
		SecurityModel: SecurityModelUSM,
		SecurityName:  user.name,
		SecurityLevel: hdr.MsgFlags &^ FlagReportable,
		ContextName:   string(scoped.ContextName),
		RequestID:     scoped.PDU.RequestID,
		PduType:       scoped.PDU.Type,
	}
	if a.metrics != nil {
		a.metrics.AgentRequests.WithLabelValues(scoped.PDU.Type.String()).Inc()
	}
	respPDU := a.dispatchPDU(reqCtx, scoped.PDU)

	respMsg := V3Message{
		MsgID:      hdr.MsgID,
		MsgMaxSize: defaultMsgMaxSize,
		MsgFlags:   hdr.MsgFlags &^ FlagReportable,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID: a.engineID,
			EngineBoots:           a.engineBoots,
			EngineTime:            a.engineTime(),
			UserName:              hdr.SecurityParameters.UserName,
		},
		ScopedPDU: ScopedPDU{
			ContextEngineID: scoped.ContextEngineID,
			ContextName:     scoped.ContextName,
			PDU:             respPDU,
		},
	}
	salt := make([]byte, 8)
	_, _ = rand.Read(salt)
	raw, err := respMsg.Encode(v3Credentials{Auth: user.auth, AuthKey: user.authKey, Priv: user.priv, PrivKey: user.privKey, PrivSalt: salt})
	if err != nil {
		a.logger.Warnf("handleV3", from.String(), err, "failed to encode response")
		return
	}
	if err := a.transport.SendTo(ctx, raw, from); err != nil {
		a.logger.Warnf("handleV3", from.String(), err, "send failed")
	}
}

// replyDiscovery answers RFC 3414 §4's blank engine-discovery probe with a
// Report carrying this agent's engineID/boots/time, unauthenticated (the
// probe itself is NoAuthNoPriv and names no user to authenticate with).
func (a *Agent) replyDiscovery(ctx context.Context, hdr V3Message, scopedField []byte, from net.Addr) {
	probeScoped, err := decodeScopedPDU(scopedField)
	if err != nil {
		a.logger.Warnf("replyDiscovery", from.String(), err, "undecodable discovery probe")
		return
	}
	report := V3Message{
		MsgID:      hdr.MsgID,
		MsgMaxSize: defaultMsgMaxSize,
		MsgFlags:   NoAuthNoPriv,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID: a.engineID,
			EngineBoots:           a.engineBoots,
			EngineTime:            a.engineTime(),
		},
		ScopedPDU: ScopedPDU{
			PDU: PDU{Type: PduReport, RequestID: probeScoped.PDU.RequestID},
		},
	}
	raw, err := report.Encode(v3Credentials{})
	if err != nil {
		a.logger.Warnf("replyDiscovery", from.String(), err, "failed to encode report")
		return
	}
	if err := a.transport.SendTo(ctx, raw, from); err != nil {
		a.logger.Warnf("replyDiscovery", from.String(), err, "send failed")
	}
}

func (a *Agent) dispatchPDU(reqCtx *RequestContext, pdu PDU) (resp PDU) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf("dispatchPDU", "", nil, "handler panic: %v", r)
			resp = PDU{Type: PduResponse, RequestID: pdu.RequestID, ErrorStatus: int32(GenErr), ErrorIndex: 1}
		}
	}()
	switch pdu.Type {
	case PduGet:
		return a.handleGet(reqCtx, pdu)
	case PduGetNext:
		return a.handleGetNext(reqCtx, pdu)
	case PduGetBulk:
		return a.handleGetBulk(reqCtx, pdu)
	case PduSet:
		return a.handleSet(reqCtx, pdu)
	default:
		return PDU{Type: PduResponse, RequestID: pdu.RequestID, ErrorStatus: int32(GenErr), ErrorIndex: 1}
	}
}

// checkAccess resolves VACM for one (reqCtx, oid) pair, recording the
// resolved group/view onto reqCtx for handlers to inspect, and counting
// denials.
func (a *Agent) checkAccess(reqCtx *RequestContext, pduType PduType, oid OID) bool {
	if a.vacm == nil {
		return true
	}
	allowed, group, view := a.vacm.CheckAccess(reqCtx.SecurityModel, reqCtx.SecurityName, reqCtx.ContextName, reqCtx.SecurityLevel, pduType, oid)
	reqCtx.GroupName = group
	if pduType == PduSet {
		reqCtx.WriteView = view
	} else {
		reqCtx.ReadView = view
	}
	if !allowed && a.metrics != nil {
		a.metrics.AgentVacmDenied.Inc()
	}
	return allowed
}

// vacmDenialStatus picks the error code for a VACM-denied OID. SNMPv1 has
// no noAccess code (RFC 1157 predates VACM); its responses fold an access
// denial into noSuchName, while v2c/v3 report noAccess directly.
func vacmDenialStatus(version Version) ErrorStatus {
	if version == Version1 {
		return NoSuchName
	}
	return NoAccess
}

func (a *Agent) handleGet(reqCtx *RequestContext, pdu PDU) PDU {
	out := make([]VarBind, len(pdu.VarBinds))
	for i, vb := range pdu.VarBinds {
		if !a.checkAccess(reqCtx, PduGet, vb.OID) {
			return setErrorResponse(reqCtx, int32(i+1), vacmDenialStatus(reqCtx.Version), pdu.VarBinds)
		}
		h := a.table.Lookup(vb.OID)
		var result GetResult
		if h == nil {
			result = GetNoSuchObject()
		} else {
			result = h.Get(reqCtx, vb.OID)
		}
		out[i] = VarBind{OID: vb.OID, Value: result.Value()}
	}
	return PDU{Type: PduResponse, RequestID: pdu.RequestID, VarBinds: out}
}

func (a *Agent) handleGetNext(reqCtx *RequestContext, pdu PDU) PDU {
	out := make([]VarBind, len(pdu.VarBinds))
	for i, vb := range pdu.VarBinds {
		vbOut, ok := a.nextInView(reqCtx, vb.OID)
		if !ok {
			vbOut = VarBind{OID: vb.OID, Value: NewEndOfMibView()}
		}
		out[i] = vbOut
	}
	return PDU{Type: PduResponse, RequestID: pdu.RequestID, VarBinds: out}
}

func (a *Agent) handleGetBulk(reqCtx *RequestContext, pdu PDU) PDU {
	nonRep := pdu.NonRepeaters()
	if nonRep < 0 {
		nonRep = 0
	}
	maxRep := pdu.MaxRepetitions()
	if maxRep < 0 {
		maxRep = 0
	}
	n := int32(len(pdu.VarBinds))

	var out []VarBind
	for i, vb := range pdu.VarBinds {
		if int32(i) >= nonRep {
			break
		}
		vbOut, ok := a.nextInView(reqCtx, vb.OID)
		if !ok {
			vbOut = VarBind{OID: vb.OID, Value: NewEndOfMibView()}
		}
		out = append(out, vbOut)
	}
	for i := nonRep; i < n; i++ {
		current := pdu.VarBinds[i].OID
		for r := int32(0); r < maxRep; r++ {
			vbOut, ok := a.nextInView(reqCtx, current)
			if !ok {
				out = append(out, VarBind{OID: current, Value: NewEndOfMibView()})
				break
			}
			out = append(out, vbOut)
			current = vbOut.OID
		}
	}
	return PDU{Type: PduResponse, RequestID: pdu.RequestID, VarBinds: out}
}

// nextInView walks handler subtrees starting at start until one yields a
// varbind the requester's view permits, or the table is exhausted.
// Varbinds outside the view are skipped rather than denying the whole
// request, per RFC 3415 §3.2's GetNext-within-view behavior.
func (a *Agent) nextInView(reqCtx *RequestContext, start OID) (VarBind, bool) {
	prefix, h, ok := a.table.NextEntry(start)
	current := start
	for ok {
		res := h.GetNext(reqCtx, current)
		if !res.end {
			if a.checkAccess(reqCtx, PduGetNext, res.oid) {
				return VarBind{OID: res.oid, Value: res.value}, true
			}
			current = res.oid
			continue
		}
		// Crossing into the next handler's subtree: current already sorts
		// before its prefix (nextEntryStrictlyAfter guarantees prefix is the
		// smallest registered prefix past the exhausted one), so the new
		// handler sees it exactly as it would an initial GetNext call into
		// its own subtree. Resetting current to prefix here would instead
		// ask the handler for the successor of its own subtree root, which
		// correctly reports end-of-view and the walk would never advance.
		prefix, h, ok = a.table.nextEntryStrictlyAfter(prefix)
	}
	return VarBind{}, false
}

func (a *Agent) handleSet(reqCtx *RequestContext, pdu PDU) PDU {
	for i, vb := range pdu.VarBinds {
		if !a.checkAccess(reqCtx, PduSet, vb.OID) {
			return setErrorResponse(reqCtx, int32(i+1), vacmDenialStatus(reqCtx.Version), pdu.VarBinds)
		}
	}
	resp, rolledBack := runSet(reqCtx, a.table, pdu.VarBinds)
	if a.metrics != nil {
		if rolledBack {
			a.metrics.AgentSetRollback.Inc()
		} else if resp.ErrorStatus == int32(NoError) {
			a.metrics.AgentSetCommits.Inc()
		}
	}
	return resp
}
