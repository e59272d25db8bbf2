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
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"durexec.io/sdk/internal/common/backoff"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// defaultStickyCacheSize bounds how many workflow executions Worker keeps a
// live WorkflowStateMachines/Dispatcher pair cached for, spec.md section 7's
// sticky-execution model: without a bound a long-running worker polling
// many distinct runs would grow the cache without limit.
const defaultStickyCacheSize = 10000

type (
	// WorkflowFunc is a registered workflow entry point. ctx carries the
	// owning WorkflowStateMachines (WithWorkflowEnvironment); input is the
	// raw workflow-start argument payload. It runs as the root coroutine of
	// its own Dispatcher and must end the execution itself by calling
	// CompleteWorkflow, FailWorkflow, CancelWorkflow or
	// ContinueAsNewWorkflow.
	WorkflowFunc func(ctx Context, input []byte)

	// ActivityFunc is a registered activity entry point. Unlike
	// WorkflowFunc it runs to completion on an ordinary goroutine with no
	// coroutine/replay semantics of its own, spec.md section 4.B's
	// activity/workflow determinism boundary.
	ActivityFunc func(ctx context.Context, input []byte) ([]byte, error)

	// WorkerOptions configures a Worker, mirroring the ambient stack every
	// other entry point in this package already carries (logging, metrics,
	// data conversion) plus the two execution-policy knobs spec.md section
	// 4.D.5 and section 7 call out by name.
	WorkerOptions struct {
		Identity                       string
		MetricsScope                   tally.Scope
		Logger                         *zap.Logger
		DataConverter                  DataConverter
		NonDeterministicWorkflowPolicy NonDeterministicWorkflowPolicy
		// StickyCacheSize bounds the number of runs Worker keeps a live
		// coordinator cached for; zero falls back to defaultStickyCacheSize.
		StickyCacheSize int
		// TaskQueueActivitiesPerSecond caps how fast this Worker starts new
		// activity executions; zero/negative means unlimited.
		TaskQueueActivitiesPerSecond float64
	}

	// cachedRun is one sticky-cache entry: a run's coordinator, the
	// Dispatcher driving its registered WorkflowFunc, and the cache's own
	// LRU handle for O(1) touch/evict.
	cachedRun struct {
		wsm        *WorkflowStateMachines
		dispatcher Dispatcher
		element    *list.Element
	}

	// Worker polls a single task queue for workflow and activity tasks and
	// drives them against the registered WorkflowFunc/ActivityFunc
	// functions, spec.md section 7.
	Worker struct {
		service   ServiceClient
		namespace string
		taskQueue string
		options   WorkerOptions

		mu         sync.Mutex
		workflows  map[string]WorkflowFunc
		activities map[string]ActivityFunc

		cacheMu sync.Mutex
		cache   map[string]*cachedRun
		lru     *list.List

		workflowPollRetrier *backoff.ConcurrentRetrier
		activityPollRetrier *backoff.ConcurrentRetrier
		activityLimiter     *rate.Limiter
	}
)

// NewWorker builds a Worker polling taskQueue in namespace against service.
func NewWorker(service ServiceClient, namespace, taskQueue string, options WorkerOptions) *Worker {
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.DataConverter == nil {
		options.DataConverter = DefaultDataConverter
	}
	if options.MetricsScope == nil {
		options.MetricsScope = tally.NoopScope
	}
	if options.StickyCacheSize <= 0 {
		options.StickyCacheSize = defaultStickyCacheSize
	}
	if options.Identity == "" {
		options.Identity = defaultIdentity()
	}
	return &Worker{
		service:    service,
		namespace:  namespace,
		taskQueue:  taskQueue,
		options:    options,
		workflows:  make(map[string]WorkflowFunc),
		activities: make(map[string]ActivityFunc),
		cache:      make(map[string]*cachedRun),
		lru:        list.New(),
		workflowPollRetrier: backoff.NewConcurrentRetrier(
			backoff.NewExponentialRetryPolicy(50 * time.Millisecond).WithMaximumInterval(10 * time.Second)),
		activityPollRetrier: backoff.NewConcurrentRetrier(
			backoff.NewExponentialRetryPolicy(50 * time.Millisecond).WithMaximumInterval(10 * time.Second)),
		activityLimiter: newActivityLimiter(options.TaskQueueActivitiesPerSecond),
	}
}

// newActivityLimiter builds the rate.Limiter processActivityTask waits on
// before starting each activity; a non-positive perSecond means unlimited.
func newActivityLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RegisterWorkflow binds name to fn, so a workflow task whose WorkflowType
// is name starts fn as the run's root coroutine.
func (w *Worker) RegisterWorkflow(name string, fn WorkflowFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workflows[name] = fn
}

// RegisterActivity binds name to fn, so an activity task whose ActivityType
// is name is dispatched to fn.
func (w *Worker) RegisterActivity(name string, fn ActivityFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activities[name] = fn
}

// Run polls the task queue for both workflow and activity tasks until ctx
// is cancelled, returning once both poll loops have stopped.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	var workflowErr, activityErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		workflowErr = w.runWorkflowTaskLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		activityErr = w.runActivityTaskLoop(ctx)
	}()
	wg.Wait()

	if workflowErr != nil {
		return workflowErr
	}
	return activityErr
}

func (w *Worker) runWorkflowTaskLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := w.service.PollForWorkflowTask(ctx, &PollForWorkflowTaskRequest{
			Namespace: w.namespace,
			TaskQueue: w.taskQueue,
			Identity:  w.options.Identity,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.options.Logger.Error("poll for workflow task failed", zap.Error(err))
			w.workflowPollRetrier.Failed()
			w.workflowPollRetrier.Throttle()
			continue
		}
		w.workflowPollRetrier.Succeeded()
		if resp == nil || len(resp.TaskToken) == 0 {
			continue
		}
		if err := w.processWorkflowTask(ctx, resp); err != nil {
			w.options.Logger.Error("workflow task failed",
				zap.String("runId", resp.WorkflowExecution.RunID), zap.Error(err))
		}
	}
}

// processWorkflowTask feeds one task's History into the run's coordinator,
// lets its Dispatcher run every coroutine as far as it can go, then reports
// whatever commands that produced back to the service.
func (w *Worker) processWorkflowTask(ctx context.Context, task *PollForWorkflowTaskResponse) error {
	run := w.getOrCreateRun(task)

	for _, event := range task.History {
		if err := run.wsm.HandleEvent(event); err != nil {
			return fmt.Errorf("handling event %d: %w", event.EventID, err)
		}
	}
	if err := run.dispatcher.ExecuteUntilAllBlocked(); err != nil {
		return fmt.Errorf("executing workflow %s: %w", task.WorkflowExecution.RunID, err)
	}

	commands := run.wsm.PrepareCommands()
	if run.dispatcher.IsDone() {
		w.evictRun(task.WorkflowExecution.RunID)
	}

	return w.service.RespondWorkflowTaskCompleted(ctx, &RespondWorkflowTaskCompletedRequest{
		TaskToken: task.TaskToken,
		Commands:  commands,
		Identity:  w.options.Identity,
	})
}

// getOrCreateRun returns the cached coordinator/dispatcher pair for this
// run, creating and registering one the first time a run's task is seen.
func (w *Worker) getOrCreateRun(task *PollForWorkflowTaskResponse) *cachedRun {
	runID := task.WorkflowExecution.RunID

	w.cacheMu.Lock()
	if run, ok := w.cache[runID]; ok {
		w.lru.MoveToFront(run.element)
		w.cacheMu.Unlock()
		return run
	}
	w.cacheMu.Unlock()

	wsm := NewWorkflowStateMachines(runID, w.options.Logger, nil)
	wsm.SetMetricsScope(w.options.MetricsScope)
	wsm.SetNonDeterministicWorkflowPolicy(w.options.NonDeterministicWorkflowPolicy)

	w.mu.Lock()
	fn, registered := w.workflows[task.WorkflowType]
	w.mu.Unlock()

	rootCtx := WithWorkflowEnvironment(Background(), wsm)
	dispatcher, _ := newDispatcher(rootCtx, func(ctx Context) {
		if !registered {
			FailWorkflow(ctx, NewApplicationError(
				fmt.Sprintf("unregistered workflow type %q", task.WorkflowType), true, nil))
			return
		}
		fn(ctx, task.Input)
	})

	run := &cachedRun{wsm: wsm, dispatcher: dispatcher}
	w.cacheMu.Lock()
	run.element = w.lru.PushFront(runID)
	w.cache[runID] = run
	w.evictOverflowLocked()
	w.cacheMu.Unlock()
	return run
}

// evictOverflowLocked drops the least-recently-used cached runs once the
// sticky cache exceeds StickyCacheSize. Caller holds cacheMu.
func (w *Worker) evictOverflowLocked() {
	for w.lru.Len() > w.options.StickyCacheSize {
		back := w.lru.Back()
		if back == nil {
			return
		}
		runID := back.Value.(string)
		w.lru.Remove(back)
		if run, ok := w.cache[runID]; ok {
			run.dispatcher.Close()
			delete(w.cache, runID)
		}
	}
}

// evictRun drops runID's cache entry unconditionally, used once its
// Dispatcher reports every coroutine has returned (the run ended).
func (w *Worker) evictRun(runID string) {
	w.cacheMu.Lock()
	defer w.cacheMu.Unlock()
	if run, ok := w.cache[runID]; ok {
		w.lru.Remove(run.element)
		run.dispatcher.Close()
		delete(w.cache, runID)
	}
}

func (w *Worker) runActivityTaskLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := w.service.PollForActivityTask(ctx, &PollForActivityTaskRequest{
			Namespace: w.namespace,
			TaskQueue: w.taskQueue,
			Identity:  w.options.Identity,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.options.Logger.Error("poll for activity task failed", zap.Error(err))
			w.activityPollRetrier.Failed()
			w.activityPollRetrier.Throttle()
			continue
		}
		w.activityPollRetrier.Succeeded()
		if resp == nil || len(resp.TaskToken) == 0 {
			continue
		}
		go w.processActivityTask(ctx, resp)
	}
}

// processActivityTask runs the registered ActivityFunc for task to
// completion and reports its outcome. Activities run concurrently with
// each other and with the workflow task loop; unlike workflow code they
// carry no determinism requirement, spec.md section 4.B.
func (w *Worker) processActivityTask(ctx context.Context, task *PollForActivityTaskResponse) {
	if err := w.activityLimiter.Wait(ctx); err != nil {
		return
	}

	exec := task.WorkflowExecution

	w.mu.Lock()
	fn, registered := w.activities[task.ActivityType]
	w.mu.Unlock()

	if !registered {
		w.respondActivityFailed(ctx, task, NewApplicationError(
			fmt.Sprintf("unregistered activity type %q", task.ActivityType), true, nil))
		return
	}

	result, err := fn(ctx, task.Input)
	if err != nil {
		var canceledErr *CanceledError
		if errors.As(err, &canceledErr) {
			if respErr := w.service.RespondActivityTaskCanceled(ctx, &RespondActivityTaskCanceledRequest{
				TaskToken: task.TaskToken, Execution: &exec, ActivityID: task.ActivityID, Identity: w.options.Identity,
			}); respErr != nil {
				w.options.Logger.Error("responding activity task canceled", zap.Error(respErr))
			}
			return
		}
		var appErr *ApplicationError
		if !errors.As(err, &appErr) {
			appErr = NewApplicationError(err.Error(), false, nil)
		}
		w.respondActivityFailed(ctx, task, appErr)
		return
	}

	if err := w.service.RespondActivityTaskCompleted(ctx, &RespondActivityTaskCompletedRequest{
		TaskToken: task.TaskToken, Execution: &exec, ActivityID: task.ActivityID,
		Result: wrapRawPayload(result), Identity: w.options.Identity,
	}); err != nil {
		w.options.Logger.Error("responding activity task completed", zap.Error(err))
	}
}

func (w *Worker) respondActivityFailed(ctx context.Context, task *PollForActivityTaskResponse, appErr *ApplicationError) {
	exec := task.WorkflowExecution
	if err := w.service.RespondActivityTaskFailed(ctx, &RespondActivityTaskFailedRequest{
		TaskToken: task.TaskToken, Execution: &exec, ActivityID: task.ActivityID,
		Failure: appErr, Identity: w.options.Identity,
	}); err != nil {
		w.options.Logger.Error("responding activity task failed", zap.Error(err))
	}
}
