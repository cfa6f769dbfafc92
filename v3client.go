package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"context"
	"crypto/rand"
)

// discoverEngine performs the RFC 3414 §4 engine discovery handshake: send
// a blank NoAuthNoPriv/Reportable probe, and parse the authoritative
// engine's id/boots/time out of the Report PDU (or, on some agents, out of
// the response's own security parameters even without a Report body).
func (c *Client) discoverEngine(ctx context.Context) (engineState, error) {
	target := c.base.target
	if st, ok := c.base.engineCache.Lookup(target); ok && len(st.EngineID) > 0 {
		return st, nil
	}

	reqID := c.nextRequestID()
	probe := discoveryProbe(reqID, reqID)
	probeMsg, err := probe.Encode(v3Credentials{})
	if err != nil {
		return engineState{}, err
	}

	if err := c.base.transport.Send(ctx, probeMsg); err != nil {
		return engineState{}, err
	}
	raw, err := c.base.transport.Recv(ctx)
	if err != nil {
		return engineState{}, err
	}
	hdr2, _, err := DecodeV3Envelope(raw)
	if err != nil {
		return engineState{}, err
	}
	sp := hdr2.SecurityParameters
	if len(sp.AuthoritativeEngineID) == 0 {
		return engineState{}, &Error{Kind: KindUnknownEngineID}
	}
	c.base.engineCache.Store(target, sp.AuthoritativeEngineID, sp.EngineBoots, sp.EngineTime)
	st, _ := c.base.engineCache.Lookup(target)
	return st, nil
}

func (c *Client) securityLevel() MsgFlags {
	flags := NoAuthNoPriv
	if c.authProto != NoAuth {
		flags = FlagAuthNoPriv
	}
	if c.authProto != NoAuth && c.privProto != NoPriv {
		flags = FlagAuthPriv
	}
	return flags
}

func (c *Client) localizedKeys(engineID []byte) (authKey, privKey []byte) {
	if c.authProto != NoAuth {
		authKey = c.authProto.LocalizeKey(c.authPassphrase, engineID)
	}
	if c.privProto != NoPriv {
		base := authKey
		if base == nil {
			base = c.authProto.LocalizeKey(c.privPassphrase, engineID)
		}
		privKey = KeyExtensionFor(c.authProto, c.privProto, base, c.privPassphrase, engineID)
	}
	return authKey, privKey
}

func (c *Client) encodeV3Request(req PDU) ([]byte, error) {
	ctx := context.Background()
	st, err := c.discoverEngine(ctx)
	if err != nil {
		return nil, err
	}
	authKey, privKey := c.localizedKeys(st.EngineID)

	salt := make([]byte, 8)
	_, _ = rand.Read(salt)

	msg := V3Message{
		MsgID:      req.RequestID,
		MsgMaxSize: defaultMsgMaxSize,
		MsgFlags:   c.securityLevel() | FlagReportable,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID: st.EngineID,
			EngineBoots:           st.EngineBoots,
			EngineTime:            st.LocalTime(),
			UserName:              c.userName,
		},
		ScopedPDU: ScopedPDU{
			ContextEngineID: st.EngineID,
			ContextName:     c.contextName,
			PDU:             req,
		},
	}
	return msg.Encode(v3Credentials{
		Auth:     c.authProto,
		AuthKey:  authKey,
		Priv:     c.privProto,
		PrivKey:  privKey,
		PrivSalt: salt,
	})
}

func (c *Client) decodeV3Response(raw []byte) (V3Message, error) {
	st, _ := c.base.engineCache.Lookup(c.base.target)
	authKey, privKey := c.localizedKeys(st.EngineID)
	return DecodeV3Message(raw, v3Credentials{
		Auth:    c.authProto,
		AuthKey: authKey,
		Priv:    c.privProto,
		PrivKey: privKey,
	})
}
