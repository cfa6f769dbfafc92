package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// runSet implements RFC 3416 §4.2.5's two-phase SET: every varbind's
// handler must agree to TestSet before any CommitSet runs, and if any
// CommitSet fails, every already-committed varbind is rolled back via
// UndoSet in reverse order and the response carries commitFailed at the
// failing varbind's index. The returned bool reports whether a rollback
// happened, for the caller's metrics.
//
// Grounded directly on original_source/src/agent/set_handler.rs's
// two-phase run_set (test-all, commit-in-order, undo-in-reverse-on-
// failure).
func runSet(reqCtx *RequestContext, table *OidTable, varbinds []VarBind) (PDU, bool) {
	resolved := make([]Handler, len(varbinds))
	for i, vb := range varbinds {
		h := table.Lookup(vb.OID)
		if h == nil {
			return setErrorResponse(reqCtx, int32(i+1), noHandlerStatus(reqCtx.Version), varbinds), false
		}
		resolved[i] = h
	}

	for i, vb := range varbinds {
		if res := resolved[i].TestSet(reqCtx, vb.OID, vb.Value); res != SetOK {
			return setErrorResponse(reqCtx, int32(i+1), res.ErrorStatus(), varbinds), false
		}
	}

	committed := 0
	for i, vb := range varbinds {
		res := resolved[i].CommitSet(reqCtx, vb.OID, vb.Value)
		if res != SetOK {
			rolledBack := committed > 0
			undoCommitted(reqCtx, resolved, varbinds, committed)
			return setErrorResponse(reqCtx, int32(i+1), CommitFailed, varbinds), rolledBack
		}
		committed = i + 1
	}

	return PDU{
		Type:        PduResponse,
		RequestID:   reqCtx.RequestID,
		ErrorStatus: int32(NoError),
		VarBinds:    varbinds,
	}, false
}

// undoCommitted rolls back the first n varbinds' commits in reverse order,
// the order RFC 3416 requires so later commits (which may depend on
// earlier ones) are unwound before the commits they depend on.
func undoCommitted(reqCtx *RequestContext, resolved []Handler, varbinds []VarBind, n int) {
	for i := n - 1; i >= 0; i-- {
		resolved[i].UndoSet(reqCtx, varbinds[i].OID, varbinds[i].Value)
	}
}

// noHandlerStatus picks the error code for a SET addressing an OID no
// handler covers. RFC 3416 dropped NoCreation from SNMPv1 entirely; v1
// responses fold that case into noSuchName, while v2c/v3 use notWritable
// (a handlerless OID can never be created by SET).
func noHandlerStatus(version Version) ErrorStatus {
	if version == Version1 {
		return NoSuchName
	}
	return NotWritable
}

func setErrorResponse(reqCtx *RequestContext, errorIndex int32, status ErrorStatus, varbinds []VarBind) PDU {
	return PDU{
		Type:        PduResponse,
		RequestID:   reqCtx.RequestID,
		ErrorStatus: int32(status),
		ErrorIndex:  errorIndex,
		VarBinds:    varbinds,
	}
}
