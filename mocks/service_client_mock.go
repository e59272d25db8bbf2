// Copyright (c) 2017 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package mocks holds gomock-generated-style test doubles for this
// package's external-collaborator contracts (SPEC_FULL.md section 5). This
// file would ordinarily come from `mockgen -source=internal/client.go`; it
// is hand-written here to the same shape mockgen produces.
package mocks

import (
	"context"
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	"durexec.io/sdk/internal"
)

// ServiceClient is a mock of internal.ServiceClient.
type ServiceClient struct {
	ctrl     *gomock.Controller
	recorder *ServiceClientMockRecorder
}

// ServiceClientMockRecorder is the recorder for ServiceClient.
type ServiceClientMockRecorder struct {
	mock *ServiceClient
}

// NewServiceClient creates a new mock instance.
func NewServiceClient(ctrl *gomock.Controller) *ServiceClient {
	mock := &ServiceClient{ctrl: ctrl}
	mock.recorder = &ServiceClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *ServiceClient) EXPECT() *ServiceClientMockRecorder {
	return m.recorder
}

func (m *ServiceClient) StartWorkflowExecution(ctx context.Context, req *internal.StartWorkflowExecutionRequest) (*internal.StartWorkflowExecutionResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StartWorkflowExecution", ctx, req)
	resp, _ := ret[0].(*internal.StartWorkflowExecutionResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) StartWorkflowExecution(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StartWorkflowExecution", reflect.TypeOf((*ServiceClient)(nil).StartWorkflowExecution), ctx, req)
}

func (m *ServiceClient) GetWorkflowExecutionHistory(ctx context.Context, req *internal.GetWorkflowExecutionHistoryRequest) (*internal.GetWorkflowExecutionHistoryResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetWorkflowExecutionHistory", ctx, req)
	resp, _ := ret[0].(*internal.GetWorkflowExecutionHistoryResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) GetWorkflowExecutionHistory(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetWorkflowExecutionHistory", reflect.TypeOf((*ServiceClient)(nil).GetWorkflowExecutionHistory), ctx, req)
}

func (m *ServiceClient) SignalWorkflowExecution(ctx context.Context, req *internal.SignalWorkflowExecutionRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SignalWorkflowExecution", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) SignalWorkflowExecution(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SignalWorkflowExecution", reflect.TypeOf((*ServiceClient)(nil).SignalWorkflowExecution), ctx, req)
}

func (m *ServiceClient) SignalWithStartWorkflowExecution(ctx context.Context, req *internal.SignalWithStartWorkflowExecutionRequest) (*internal.StartWorkflowExecutionResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SignalWithStartWorkflowExecution", ctx, req)
	resp, _ := ret[0].(*internal.StartWorkflowExecutionResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) SignalWithStartWorkflowExecution(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SignalWithStartWorkflowExecution", reflect.TypeOf((*ServiceClient)(nil).SignalWithStartWorkflowExecution), ctx, req)
}

func (m *ServiceClient) RequestCancelWorkflowExecution(ctx context.Context, req *internal.RequestCancelWorkflowExecutionRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RequestCancelWorkflowExecution", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) RequestCancelWorkflowExecution(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RequestCancelWorkflowExecution", reflect.TypeOf((*ServiceClient)(nil).RequestCancelWorkflowExecution), ctx, req)
}

func (m *ServiceClient) TerminateWorkflowExecution(ctx context.Context, req *internal.TerminateWorkflowExecutionRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TerminateWorkflowExecution", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) TerminateWorkflowExecution(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TerminateWorkflowExecution", reflect.TypeOf((*ServiceClient)(nil).TerminateWorkflowExecution), ctx, req)
}

func (m *ServiceClient) RespondActivityTaskCompleted(ctx context.Context, req *internal.RespondActivityTaskCompletedRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RespondActivityTaskCompleted", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) RespondActivityTaskCompleted(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RespondActivityTaskCompleted", reflect.TypeOf((*ServiceClient)(nil).RespondActivityTaskCompleted), ctx, req)
}

func (m *ServiceClient) RespondActivityTaskFailed(ctx context.Context, req *internal.RespondActivityTaskFailedRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RespondActivityTaskFailed", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) RespondActivityTaskFailed(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RespondActivityTaskFailed", reflect.TypeOf((*ServiceClient)(nil).RespondActivityTaskFailed), ctx, req)
}

func (m *ServiceClient) RespondActivityTaskCanceled(ctx context.Context, req *internal.RespondActivityTaskCanceledRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RespondActivityTaskCanceled", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) RespondActivityTaskCanceled(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RespondActivityTaskCanceled", reflect.TypeOf((*ServiceClient)(nil).RespondActivityTaskCanceled), ctx, req)
}

func (m *ServiceClient) RecordActivityTaskHeartbeat(ctx context.Context, req *internal.RecordActivityTaskHeartbeatRequest) (*internal.RecordActivityTaskHeartbeatResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordActivityTaskHeartbeat", ctx, req)
	resp, _ := ret[0].(*internal.RecordActivityTaskHeartbeatResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) RecordActivityTaskHeartbeat(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordActivityTaskHeartbeat", reflect.TypeOf((*ServiceClient)(nil).RecordActivityTaskHeartbeat), ctx, req)
}

func (m *ServiceClient) QueryWorkflow(ctx context.Context, req *internal.QueryWorkflowRequest) (*internal.QueryWorkflowResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "QueryWorkflow", ctx, req)
	resp, _ := ret[0].(*internal.QueryWorkflowResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) QueryWorkflow(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "QueryWorkflow", reflect.TypeOf((*ServiceClient)(nil).QueryWorkflow), ctx, req)
}

func (m *ServiceClient) PollForWorkflowTask(ctx context.Context, req *internal.PollForWorkflowTaskRequest) (*internal.PollForWorkflowTaskResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PollForWorkflowTask", ctx, req)
	resp, _ := ret[0].(*internal.PollForWorkflowTaskResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) PollForWorkflowTask(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PollForWorkflowTask", reflect.TypeOf((*ServiceClient)(nil).PollForWorkflowTask), ctx, req)
}

func (m *ServiceClient) RespondWorkflowTaskCompleted(ctx context.Context, req *internal.RespondWorkflowTaskCompletedRequest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RespondWorkflowTaskCompleted", ctx, req)
	err, _ := ret[0].(error)
	return err
}

func (mr *ServiceClientMockRecorder) RespondWorkflowTaskCompleted(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RespondWorkflowTaskCompleted", reflect.TypeOf((*ServiceClient)(nil).RespondWorkflowTaskCompleted), ctx, req)
}

func (m *ServiceClient) PollForActivityTask(ctx context.Context, req *internal.PollForActivityTaskRequest) (*internal.PollForActivityTaskResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PollForActivityTask", ctx, req)
	resp, _ := ret[0].(*internal.PollForActivityTaskResponse)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *ServiceClientMockRecorder) PollForActivityTask(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PollForActivityTask", reflect.TypeOf((*ServiceClient)(nil).PollForActivityTask), ctx, req)
}

var _ internal.ServiceClient = (*ServiceClient)(nil)
