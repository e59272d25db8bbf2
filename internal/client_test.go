// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
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

package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStartServiceClient struct {
	ServiceClient
	started bool
}

func (f *fakeStartServiceClient) StartWorkflowExecution(ctx context.Context, req *StartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error) {
	f.started = true
	return &StartWorkflowExecutionResponse{RunID: "run-1"}, nil
}

// TestExecuteWorkflowRejectsMalformedCronSchedule checks a malformed
// CronSchedule is rejected before any StartWorkflowExecution call is made.
func TestExecuteWorkflowRejectsMalformedCronSchedule(t *testing.T) {
	service := &fakeStartServiceClient{}
	client := NewClient(service, "test-namespace", ClientOptions{})

	_, err := client.ExecuteWorkflow(context.Background(),
		StartWorkflowOptions{ID: "wf-1", TaskQueue: "q", CronSchedule: "not a schedule"},
		"Greet")

	require.Error(t, err)
	require.False(t, service.started)
}

// TestExecuteWorkflowAcceptsValidCronSchedule checks a well-formed
// CronSchedule doesn't block the call from reaching the service.
func TestExecuteWorkflowAcceptsValidCronSchedule(t *testing.T) {
	service := &fakeStartServiceClient{}
	client := NewClient(service, "test-namespace", ClientOptions{})

	run, err := client.ExecuteWorkflow(context.Background(),
		StartWorkflowOptions{ID: "wf-1", TaskQueue: "q", CronSchedule: "0 0 * * *"},
		"Greet")

	require.NoError(t, err)
	require.True(t, service.started)
	require.Equal(t, "run-1", run.GetRunID())
}
