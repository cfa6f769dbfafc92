// Hand-written in the shape of MockGen output.
// Source: handler.go (Handler interface)

package asyncsnmp

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockHandler is a mock of the Handler interface.
type MockHandler struct {
	ctrl     *gomock.Controller
	recorder *MockHandlerMockRecorder
}

// MockHandlerMockRecorder is the mock recorder for MockHandler.
type MockHandlerMockRecorder struct {
	mock *MockHandler
}

// NewMockHandler creates a new mock instance.
func NewMockHandler(ctrl *gomock.Controller) *MockHandler {
	mock := &MockHandler{ctrl: ctrl}
	mock.recorder = &MockHandlerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHandler) EXPECT() *MockHandlerMockRecorder {
	return m.recorder
}

// Get mocks base method.
func (m *MockHandler) Get(ctx *RequestContext, oid OID) GetResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, oid)
	ret0, _ := ret[0].(GetResult)
	return ret0
}

// Get indicates an expected call of Get.
func (mr *MockHandlerMockRecorder) Get(ctx, oid interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockHandler)(nil).Get), ctx, oid)
}

// GetNext mocks base method.
func (m *MockHandler) GetNext(ctx *RequestContext, oid OID) GetNextResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetNext", ctx, oid)
	ret0, _ := ret[0].(GetNextResult)
	return ret0
}

// GetNext indicates an expected call of GetNext.
func (mr *MockHandlerMockRecorder) GetNext(ctx, oid interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetNext", reflect.TypeOf((*MockHandler)(nil).GetNext), ctx, oid)
}

// TestSet mocks base method.
func (m *MockHandler) TestSet(ctx *RequestContext, oid OID, value Value) SetResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TestSet", ctx, oid, value)
	ret0, _ := ret[0].(SetResult)
	return ret0
}

// TestSet indicates an expected call of TestSet.
func (mr *MockHandlerMockRecorder) TestSet(ctx, oid, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TestSet", reflect.TypeOf((*MockHandler)(nil).TestSet), ctx, oid, value)
}

// CommitSet mocks base method.
func (m *MockHandler) CommitSet(ctx *RequestContext, oid OID, value Value) SetResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CommitSet", ctx, oid, value)
	ret0, _ := ret[0].(SetResult)
	return ret0
}

// CommitSet indicates an expected call of CommitSet.
func (mr *MockHandlerMockRecorder) CommitSet(ctx, oid, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CommitSet", reflect.TypeOf((*MockHandler)(nil).CommitSet), ctx, oid, value)
}

// UndoSet mocks base method.
func (m *MockHandler) UndoSet(ctx *RequestContext, oid OID, value Value) SetResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UndoSet", ctx, oid, value)
	ret0, _ := ret[0].(SetResult)
	return ret0
}

// UndoSet indicates an expected call of UndoSet.
func (mr *MockHandlerMockRecorder) UndoSet(ctx, oid, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UndoSet", reflect.TypeOf((*MockHandler)(nil).UndoSet), ctx, oid, value)
}

// Handles mocks base method.
func (m *MockHandler) Handles(oid OID) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Handles", oid)
	ret0, _ := ret[0].(bool)
	return ret0
}

// Handles indicates an expected call of Handles.
func (mr *MockHandlerMockRecorder) Handles(oid interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Handles", reflect.TypeOf((*MockHandler)(nil).Handles), oid)
}
