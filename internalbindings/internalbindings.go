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

// Package internalbindings contains low level APIs to be used by non Go SDKs
// built on top of the Go SDK.
//
// ATTENTION!
// The APIs found in this package should never be referenced from any application code.
// There is absolutely no guarantee of compatibility between releases.
// Always talk to Temporal team before building anything on top of them.
package internalbindings

import "durexec.io/sdk/internal"

type (
	// WorkflowExecution identifies one run of one workflow ID.
	WorkflowExecution = internal.WorkflowExecution
	// Context is the coroutine-scoped Context workflow code runs under.
	Context = internal.Context
	// WorkflowFunc is a registered workflow entry point.
	WorkflowFunc = internal.WorkflowFunc
	// ActivityFunc is a registered activity entry point.
	ActivityFunc = internal.ActivityFunc
	// ServiceClient is the workflow-service RPC contract a Worker polls
	// against, SPEC_FULL.md section 5's "interfaced by contract only"
	// transport boundary -- the seam a non-Go SDK's own transport
	// implementation plugs into.
	ServiceClient = internal.ServiceClient
	// Command is one entry of the command batch a workflow task produces.
	Command = internal.Command
	// HistoryEvent is one entry of a run's recorded event history.
	HistoryEvent = internal.HistoryEvent
)
