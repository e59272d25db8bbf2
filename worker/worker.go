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

// Package worker contains functions to manage the lifecycle of a replay
// engine worker: polling a task queue for workflow and activity tasks and
// driving them against registered WorkflowFunc/ActivityFunc implementations
// (spec.md section 7).
package worker

import (
	"context"

	"durexec.io/sdk/internal"
)

type (
	// Worker polls a single task queue for workflow and activity tasks
	// until the context passed to Run is cancelled.
	Worker interface {
		// RegisterWorkflow binds name to fn; a workflow task whose
		// WorkflowType is name starts fn as the run's root coroutine.
		RegisterWorkflow(name string, fn WorkflowFunc)
		// RegisterActivity binds name to fn; an activity task whose
		// ActivityType is name is dispatched to fn.
		RegisterActivity(name string, fn ActivityFunc)
		// Run polls until ctx is cancelled, then returns.
		Run(ctx context.Context) error
	}

	// Options configures a Worker.
	Options = internal.WorkerOptions

	// WorkflowFunc is a registered workflow entry point, spec.md section
	// 4.D's coordinator driving a run's coroutine tree.
	WorkflowFunc = internal.WorkflowFunc

	// ActivityFunc is a registered activity entry point, spec.md section
	// 4.B "Activity".
	ActivityFunc = internal.ActivityFunc

	// ServiceClient is the workflow-service RPC contract a Worker polls
	// against, SPEC_FULL.md section 5's "interfaced by contract only"
	// transport boundary.
	ServiceClient = internal.ServiceClient

	// NonDeterministicWorkflowPolicy configures how a worker's coordinator
	// reacts to a detected command/event mismatch, spec.md section 4.D.5.
	NonDeterministicWorkflowPolicy = internal.NonDeterministicWorkflowPolicy
)

const (
	// NonDeterministicWorkflowPolicyBlockWorkflow logs the mismatch and
	// otherwise leaves the run stuck rather than replying to the service;
	// the default, matching the teacher's own documented default.
	NonDeterministicWorkflowPolicyBlockWorkflow = internal.NonDeterministicWorkflowPolicyBlockWorkflow
	// NonDeterministicWorkflowPolicyFailWorkflow additionally fails the
	// workflow execution once a mismatch is detected.
	NonDeterministicWorkflowPolicyFailWorkflow = internal.NonDeterministicWorkflowPolicyFailWorkflow
)

// New creates a Worker polling taskQueue in namespace against service.
//
//	service   - the workflow-service contract (see ServiceClient)
//	namespace - the namespace this worker's workflows/activities belong to
//	taskQueue - identifies the group of workflow/activity implementations
//	            this worker process hosts
//	options   - logger, metrics, data conversion and execution-policy knobs
func New(service ServiceClient, namespace string, taskQueue string, options Options) Worker {
	return internal.NewWorker(service, namespace, taskQueue, options)
}
