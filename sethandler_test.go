package asyncsnmp

import "testing"

func TestRunSetCommitsAllOnSuccess(t *testing.T) {
	h1 := &stubHandler{prefix: NewOID(1, 1)}
	h2 := &stubHandler{prefix: NewOID(1, 2)}
	table := NewOidTable()
	table.Register(h1.prefix, h1)
	table.Register(h2.prefix, h2)

	reqCtx := &RequestContext{RequestID: 7}
	varbinds := []VarBind{
		NewVarBind(h1.prefix, NewInteger(1)),
		NewVarBind(h2.prefix, NewInteger(2)),
	}
	resp, rolledBack := runSet(reqCtx, table, varbinds)
	if rolledBack {
		t.Fatal("expected no rollback on success")
	}
	if resp.ErrorStatus != int32(NoError) {
		t.Fatalf("expected NoError, got %v", ErrorStatus(resp.ErrorStatus))
	}
	if !h1.committed || !h2.committed {
		t.Fatal("expected both handlers to commit")
	}
}

func TestRunSetRollsBackEarlierCommitsOnLaterFailure(t *testing.T) {
	h1 := &stubHandler{prefix: NewOID(1, 1)}
	h2 := &stubHandler{prefix: NewOID(1, 2), commitErr: SetCommitFailed}
	table := NewOidTable()
	table.Register(h1.prefix, h1)
	table.Register(h2.prefix, h2)

	reqCtx := &RequestContext{RequestID: 9}
	varbinds := []VarBind{
		NewVarBind(h1.prefix, NewInteger(1)),
		NewVarBind(h2.prefix, NewInteger(2)),
	}
	resp, rolledBack := runSet(reqCtx, table, varbinds)
	if !rolledBack {
		t.Fatal("expected rollback since h1 had already committed")
	}
	if ErrorStatus(resp.ErrorStatus) != CommitFailed {
		t.Fatalf("expected CommitFailed, got %v", ErrorStatus(resp.ErrorStatus))
	}
	if resp.ErrorIndex != 2 {
		t.Fatalf("expected error index 2 (the failing varbind), got %d", resp.ErrorIndex)
	}
	if !h1.undone {
		t.Fatal("expected h1's commit to be undone")
	}
}

func TestRunSetFailsFastOnTestPhase(t *testing.T) {
	h1 := &stubHandler{prefix: NewOID(1, 1), testErr: SetWrongType}
	h2 := &stubHandler{prefix: NewOID(1, 2)}
	table := NewOidTable()
	table.Register(h1.prefix, h1)
	table.Register(h2.prefix, h2)

	reqCtx := &RequestContext{RequestID: 3}
	varbinds := []VarBind{
		NewVarBind(h1.prefix, NewInteger(1)),
		NewVarBind(h2.prefix, NewInteger(2)),
	}
	resp, rolledBack := runSet(reqCtx, table, varbinds)
	if rolledBack {
		t.Fatal("a test-phase failure commits nothing, so there's nothing to roll back")
	}
	if ErrorStatus(resp.ErrorStatus) != WrongType {
		t.Fatalf("expected WrongType, got %v", ErrorStatus(resp.ErrorStatus))
	}
	if h1.committed || h2.committed {
		t.Fatal("expected no commits when the test phase fails")
	}
}

func TestRunSetNoSuchNameOrNotWritableWhenNoHandlerCoversOID(t *testing.T) {
	table := NewOidTable()
	varbinds := []VarBind{NewVarBind(NewOID(1, 9, 9), NewInteger(1))}

	reqCtx := &RequestContext{RequestID: 1, Version: Version1}
	resp, rolledBack := runSet(reqCtx, table, varbinds)
	if rolledBack {
		t.Fatal("expected no rollback")
	}
	if ErrorStatus(resp.ErrorStatus) != NoSuchName {
		t.Fatalf("expected NoSuchName for a v1 request, got %v", ErrorStatus(resp.ErrorStatus))
	}

	for _, v := range []Version{Version2c, Version3} {
		reqCtx = &RequestContext{RequestID: 1, Version: v}
		resp, rolledBack = runSet(reqCtx, table, varbinds)
		if rolledBack {
			t.Fatal("expected no rollback")
		}
		if ErrorStatus(resp.ErrorStatus) != NotWritable {
			t.Fatalf("expected NotWritable for version %v, got %v", v, ErrorStatus(resp.ErrorStatus))
		}
	}
}
