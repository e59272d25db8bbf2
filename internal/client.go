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

package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/robfig/cron"
	"github.com/uber-go/tally"
	commonpb "go.temporal.io/api/common/v1"
	"go.uber.org/zap"
)

// QueryTypeStackTrace is the built-in query type for Client.QueryWorkflow()
// that returns the stack of the currently blocked coroutines, spec.md
// section 9 "queryWorkflow".
const QueryTypeStackTrace = "__stack_trace"

type (
	// WorkflowExecution identifies one run of one workflow ID. RunID pins a
	// specific attempt; a bare WorkflowID alone resolves to its current run.
	WorkflowExecution struct {
		WorkflowID string
		RunID      string
	}

	// RetryPolicy governs ExecuteWorkflow's automatic retry of the entire
	// run on failure, spec.md section 9's StartWorkflowOptions surface.
	RetryPolicy struct {
		InitialInterval    time.Duration
		BackoffCoefficient float64
		MaximumInterval    time.Duration
		MaximumAttempts    int32
		NonRetryableErrorTypes []string
	}

	// WorkflowIDReusePolicy says what ExecuteWorkflow should do when a
	// previous run already used this WorkflowID.
	WorkflowIDReusePolicy int

	// StartWorkflowOptions configures a new run, mirroring the fields
	// spec.md section 9's public API surface names.
	StartWorkflowOptions struct {
		ID                       string
		TaskQueue                string
		WorkflowExecutionTimeout time.Duration
		WorkflowRunTimeout       time.Duration
		WorkflowTaskTimeout      time.Duration
		WorkflowIDReusePolicy    WorkflowIDReusePolicy
		RetryPolicy              *RetryPolicy
		CronSchedule             string
		Memo                     map[string]interface{}
		SearchAttributes         map[string]interface{}
	}

	// ClientOptions configures NewClient. HostPort/transport credentials are
	// out of scope (SPEC_FULL.md section 5 Non-goals: "the gRPC transport
	// ... remain external collaborators interfaced by contract only") --
	// what NewClient actually needs is the ServiceClient contract
	// implementation plus the ambient stack the rest of the engine already
	// carries (metrics, tracing, data conversion, logging).
	ClientOptions struct {
		Identity      string
		MetricsScope  tally.Scope
		DataConverter DataConverter
		Tracer        opentracing.Tracer
		Logger        *zap.Logger
	}
)

const (
	// WorkflowIDReusePolicyAllowDuplicateFailedOnly only starts if the
	// previous run with this ID closed in a non-successful state.
	WorkflowIDReusePolicyAllowDuplicateFailedOnly WorkflowIDReusePolicy = iota
	// WorkflowIDReusePolicyAllowDuplicate always allows starting a new run.
	WorkflowIDReusePolicyAllowDuplicate
	// WorkflowIDReusePolicyRejectDuplicate rejects starting if any run with
	// this ID exists, regardless of how it closed.
	WorkflowIDReusePolicyRejectDuplicate
)

// ServiceClient is the contract this package drives the replay engine
// against: every method a workflow-service RPC would provide, expressed as
// plain request/response structs rather than generated gRPC/protobuf
// types. SPEC_FULL.md section 5 scopes the actual transport out ("remain
// external collaborators interfaced by contract only") -- production
// deployments implement this against a real service; tests implement it
// against an in-memory event log.
type ServiceClient interface {
	// StartWorkflowExecution records a WorkflowExecutionStarted event and
	// returns the RunID the service assigned.
	StartWorkflowExecution(ctx context.Context, req *StartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error)
	// GetWorkflowExecutionHistory returns every event recorded for the run
	// so far, in order, for Client.GetWorkflowHistory / GetWorkflow.Get.
	GetWorkflowExecutionHistory(ctx context.Context, req *GetWorkflowExecutionHistoryRequest) (*GetWorkflowExecutionHistoryResponse, error)
	// SignalWorkflowExecution records a WorkflowExecutionSignaled event.
	SignalWorkflowExecution(ctx context.Context, req *SignalWorkflowExecutionRequest) error
	// SignalWithStartWorkflowExecution starts the run first if it isn't
	// already running, then signals it, atomically.
	SignalWithStartWorkflowExecution(ctx context.Context, req *SignalWithStartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error)
	// RequestCancelWorkflowExecution records a
	// WorkflowExecutionCancelRequested event.
	RequestCancelWorkflowExecution(ctx context.Context, req *RequestCancelWorkflowExecutionRequest) error
	// TerminateWorkflowExecution force-ends the run without giving
	// workflow code a chance to observe the cancellation.
	TerminateWorkflowExecution(ctx context.Context, req *TerminateWorkflowExecutionRequest) error
	// RespondActivityTaskCompleted reports a successful activity result,
	// used by both CompleteActivity (token-addressed) and
	// CompleteActivityByID (workflow/activity-ID-addressed).
	RespondActivityTaskCompleted(ctx context.Context, req *RespondActivityTaskCompletedRequest) error
	// RespondActivityTaskFailed reports an activity failure.
	RespondActivityTaskFailed(ctx context.Context, req *RespondActivityTaskFailedRequest) error
	// RespondActivityTaskCanceled reports an activity gave up in response
	// to its own cancellation request.
	RespondActivityTaskCanceled(ctx context.Context, req *RespondActivityTaskCanceledRequest) error
	// RecordActivityTaskHeartbeat reports liveness plus progress details;
	// the response says whether the activity should now cancel itself.
	RecordActivityTaskHeartbeat(ctx context.Context, req *RecordActivityTaskHeartbeatRequest) (*RecordActivityTaskHeartbeatResponse, error)
	// QueryWorkflow runs a read-only query against the run's current state.
	QueryWorkflow(ctx context.Context, req *QueryWorkflowRequest) (*QueryWorkflowResponse, error)
	// PollForWorkflowTask long-polls taskQueue for the next workflow task.
	// A response with a nil/empty TaskToken means the long-poll timed out
	// with nothing to deliver, the same no-op-poll shape the teacher's own
	// task pollers expect callers to tolerate.
	PollForWorkflowTask(ctx context.Context, req *PollForWorkflowTaskRequest) (*PollForWorkflowTaskResponse, error)
	// RespondWorkflowTaskCompleted reports the commands a workflow task
	// produced, spec.md section 4.D's PrepareCommands output.
	RespondWorkflowTaskCompleted(ctx context.Context, req *RespondWorkflowTaskCompletedRequest) error
	// PollForActivityTask long-polls taskQueue for the next activity task.
	PollForActivityTask(ctx context.Context, req *PollForActivityTaskRequest) (*PollForActivityTaskResponse, error)
}

type (
	// StartWorkflowExecutionRequest starts a new run.
	StartWorkflowExecutionRequest struct {
		Namespace  string
		WorkflowID string
		WorkflowType string
		TaskQueue  string
		Input      *commonpb.Payloads
		Options    StartWorkflowOptions
	}
	// StartWorkflowExecutionResponse carries the RunID the service assigned.
	StartWorkflowExecutionResponse struct {
		RunID string
	}
	// SignalWithStartWorkflowExecutionRequest combines a start and a signal
	// into a single atomic request.
	SignalWithStartWorkflowExecutionRequest struct {
		Start      StartWorkflowExecutionRequest
		SignalName string
		SignalArg  *commonpb.Payloads
	}
	// GetWorkflowExecutionHistoryRequest asks for the recorded event
	// history of one run.
	GetWorkflowExecutionHistoryRequest struct {
		Namespace string
		Execution WorkflowExecution
	}
	// GetWorkflowExecutionHistoryResponse is the event history plus, once
	// the run has ended, its outcome (spec.md has no event-side result
	// payload for terminal events -- WorkflowStateMachines.Outcome derives
	// this from the command that ended the run instead, and the service
	// threads it through here the same way).
	GetWorkflowExecutionHistoryResponse struct {
		Events  []*HistoryEvent
		Outcome *WorkflowOutcome
	}
	// SignalWorkflowExecutionRequest delivers an external signal.
	SignalWorkflowExecutionRequest struct {
		Namespace  string
		Execution  WorkflowExecution
		SignalName string
		SignalArg  *commonpb.Payloads
	}
	// RequestCancelWorkflowExecutionRequest asks the run to cancel.
	RequestCancelWorkflowExecutionRequest struct {
		Namespace string
		Execution WorkflowExecution
	}
	// TerminateWorkflowExecutionRequest force-ends the run.
	TerminateWorkflowExecutionRequest struct {
		Namespace string
		Execution WorkflowExecution
		Reason    string
	}
	// RespondActivityTaskCompletedRequest reports an activity result,
	// addressed either by TaskToken or by WorkflowID/RunID/ActivityID.
	RespondActivityTaskCompletedRequest struct {
		TaskToken  []byte
		Execution  *WorkflowExecution
		ActivityID string
		Result     *commonpb.Payloads
		Identity   string
	}
	// RespondActivityTaskFailedRequest reports an activity failure.
	RespondActivityTaskFailedRequest struct {
		TaskToken  []byte
		Execution  *WorkflowExecution
		ActivityID string
		Failure    *ApplicationError
		Identity   string
	}
	// RespondActivityTaskCanceledRequest reports an activity's cancellation.
	RespondActivityTaskCanceledRequest struct {
		TaskToken  []byte
		Execution  *WorkflowExecution
		ActivityID string
		Details    *commonpb.Payloads
		Identity   string
	}
	// RecordActivityTaskHeartbeatRequest reports liveness and progress.
	RecordActivityTaskHeartbeatRequest struct {
		TaskToken  []byte
		Execution  *WorkflowExecution
		ActivityID string
		Details    *commonpb.Payloads
	}
	// RecordActivityTaskHeartbeatResponse tells the activity whether to
	// cancel itself.
	RecordActivityTaskHeartbeatResponse struct {
		CancelRequested bool
	}
	// QueryWorkflowRequest runs a named query against a run's current
	// state, spec.md section 9 "queryWorkflow".
	QueryWorkflowRequest struct {
		Namespace string
		Execution WorkflowExecution
		QueryType string
		QueryArgs *commonpb.Payloads
	}
	// QueryWorkflowResponse is the query handler's result.
	QueryWorkflowResponse struct {
		Result *commonpb.Payloads
	}
	// PollForWorkflowTaskRequest asks for the next workflow task on
	// TaskQueue, blocking (from the caller's perspective) until one is
	// available or the long-poll times out.
	PollForWorkflowTaskRequest struct {
		Namespace string
		TaskQueue string
		Identity  string
	}
	// PollForWorkflowTaskResponse carries one workflow task's worth of
	// work. WorkflowType/Input accompany only the task that starts a run
	// (Worker's sticky cache has nothing to reuse yet); every later task
	// for the same run carries just the History accumulated since the
	// previous one, spec.md section 7's sticky-execution model.
	PollForWorkflowTaskResponse struct {
		TaskToken         []byte
		WorkflowExecution WorkflowExecution
		WorkflowType      string
		Input             []byte
		History           []*HistoryEvent
	}
	// RespondWorkflowTaskCompletedRequest reports the commands
	// WorkflowStateMachines.PrepareCommands produced for one workflow task.
	RespondWorkflowTaskCompletedRequest struct {
		TaskToken []byte
		Commands  []*Command
		Identity  string
	}
	// PollForActivityTaskRequest asks for the next activity task on
	// TaskQueue.
	PollForActivityTaskRequest struct {
		Namespace string
		TaskQueue string
		Identity  string
	}
	// PollForActivityTaskResponse carries one activity invocation.
	PollForActivityTaskResponse struct {
		TaskToken         []byte
		WorkflowExecution WorkflowExecution
		ActivityID        string
		ActivityType      string
		Input             []byte
	}
)

// WorkflowRun represents a (possibly still in-flight) run started by
// ExecuteWorkflow or SignalWithStartWorkflow.
type WorkflowRun interface {
	// GetID returns the workflow ID.
	GetID() string
	// GetRunID returns the specific run ID this handle was started with.
	GetRunID() string
	// Get blocks until the run ends, then decodes its result into
	// valuePtr, or returns the run's failure/cancellation as an error.
	Get(ctx context.Context, valuePtr interface{}) error
}

// Client is the trimmed surface this engine actually implements:
// execution lifecycle, signals, activity completion and the replay-only
// QueryWorkflow path. SPEC_FULL.md section 5 scopes the visibility
// service (List/Scan/Count/GetSearchAttributes/DescribeTaskQueue) and
// namespace administration (DomainClient) out as external collaborators
// with no state machine semantics of their own to exercise -- see
// DESIGN.md.
type Client interface {
	// ExecuteWorkflow starts a new run and returns a handle to it.
	ExecuteWorkflow(ctx context.Context, options StartWorkflowOptions, workflowType string, args ...interface{}) (WorkflowRun, error)
	// GetWorkflow returns a handle to an existing run. An empty runID
	// resolves to the WorkflowID's current run.
	GetWorkflow(ctx context.Context, workflowID string, runID string) WorkflowRun
	// SignalWorkflow delivers a named signal to a running workflow.
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
	// SignalWithStartWorkflow starts the workflow if it isn't already
	// running, then signals it, atomically.
	SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{}, options StartWorkflowOptions, workflowType string, workflowArgs ...interface{}) (WorkflowRun, error)
	// CancelWorkflow requests cancellation of a running workflow.
	CancelWorkflow(ctx context.Context, workflowID string, runID string) error
	// TerminateWorkflow force-ends a running workflow.
	TerminateWorkflow(ctx context.Context, workflowID string, runID string, reason string) error
	// GetWorkflowHistory returns the recorded event history of a run.
	GetWorkflowHistory(ctx context.Context, workflowID string, runID string) ([]*HistoryEvent, error)
	// CompleteActivity reports an async activity's outcome by task token.
	CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, err error) error
	// CompleteActivityByID reports an async activity's outcome addressed
	// by workflow/run/activity ID instead of a task token.
	CompleteActivityByID(ctx context.Context, namespace, workflowID, runID, activityID string, result interface{}, err error) error
	// RecordActivityHeartbeat reports liveness and progress for an async
	// activity addressed by task token; the returned error is
	// ErrActivityCanceled if the activity should now cancel itself.
	RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details ...interface{}) error
	// RecordActivityHeartbeatByID is RecordActivityHeartbeat addressed by
	// workflow/run/activity ID.
	RecordActivityHeartbeatByID(ctx context.Context, namespace, workflowID, runID, activityID string, details ...interface{}) error
	// QueryWorkflow runs queryType as a read-only replay against the run's
	// recorded history, spec.md section 9 "queryWorkflow".
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (Value, error)
}

// ErrActivityCanceled is returned by RecordActivityHeartbeat /
// RecordActivityHeartbeatByID once the service reports the activity's
// cancellation was requested.
var ErrActivityCanceled = errors.New("activity canceled")

// workflowClient implements Client against a ServiceClient, the same
// split reportActivityComplete/reportActivityCompleteByID made in the
// teacher's task pollers: one RPC-shaped dependency, one DataConverter to
// move values on and off the wire.
type workflowClient struct {
	service       ServiceClient
	namespace     string
	options       ClientOptions
	dataConverter DataConverter
}

// NewClient builds a Client against service. namespace scopes every call
// the way a real workflow-service multiplexes many tenants; options'
// zero value is valid (falls back to DefaultDataConverter, defaultTracer's
// jaeger tracer that samples every span but reports none, and a disabled
// metrics scope).
func NewClient(service ServiceClient, namespace string, options ClientOptions) Client {
	if options.DataConverter == nil {
		options.DataConverter = DefaultDataConverter
	}
	if options.MetricsScope == nil {
		options.MetricsScope = tally.NoopScope
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Identity == "" {
		options.Identity = defaultIdentity()
	}
	if options.Tracer == nil {
		options.Tracer = defaultTracer()
	}
	return &workflowClient{service: service, namespace: namespace, options: options, dataConverter: options.DataConverter}
}

func (wc *workflowClient) encodeArgs(args ...interface{}) (*commonpb.Payloads, error) {
	return wc.dataConverter.ToData(args...)
}

// valuesToPayloads re-serializes a CanceledError's details for
// transmission back to the service: ErrorDetailsValues holds raw
// in-process arguments that still need encoding, while an *encodedValues
// (built by NewCanceledError from a service-originated Values) already
// holds encoded Payloads that only need unwrapping.
func (wc *workflowClient) valuesToPayloads(v Values) (*commonpb.Payloads, error) {
	switch d := v.(type) {
	case ErrorDetailsValues:
		return wc.encodeArgs(([]interface{})(d)...)
	case *encodedValues:
		return d.rawPayloads()
	default:
		return wc.encodeArgs()
	}
}

func (wc *workflowClient) ExecuteWorkflow(ctx context.Context, options StartWorkflowOptions, workflowType string, args ...interface{}) (WorkflowRun, error) {
	if options.CronSchedule != "" {
		if _, err := cron.Parse(options.CronSchedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", options.CronSchedule, err)
		}
	}

	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, wc.options.Tracer, "ExecuteWorkflow")
	defer span.Finish()
	span.SetTag("workflowType", workflowType)
	span.SetTag("taskQueue", options.TaskQueue)

	input, err := wc.encodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow arguments: %w", err)
	}
	resp, err := wc.service.StartWorkflowExecution(ctx, &StartWorkflowExecutionRequest{
		Namespace:    wc.namespace,
		WorkflowID:   options.ID,
		WorkflowType: workflowType,
		TaskQueue:    options.TaskQueue,
		Input:        input,
		Options:      options,
	})
	if err != nil {
		return nil, err
	}
	return &workflowRun{client: wc, workflowID: options.ID, runID: resp.RunID}, nil
}

func (wc *workflowClient) GetWorkflow(ctx context.Context, workflowID string, runID string) WorkflowRun {
	return &workflowRun{client: wc, workflowID: workflowID, runID: runID}
}

func (wc *workflowClient) SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error {
	payload, err := wc.encodeArgs(arg)
	if err != nil {
		return fmt.Errorf("encoding signal argument: %w", err)
	}
	return wc.service.SignalWorkflowExecution(ctx, &SignalWorkflowExecutionRequest{
		Namespace:  wc.namespace,
		Execution:  WorkflowExecution{WorkflowID: workflowID, RunID: runID},
		SignalName: signalName,
		SignalArg:  payload,
	})
}

func (wc *workflowClient) SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{}, options StartWorkflowOptions, workflowType string, workflowArgs ...interface{}) (WorkflowRun, error) {
	input, err := wc.encodeArgs(workflowArgs...)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow arguments: %w", err)
	}
	signal, err := wc.encodeArgs(signalArg)
	if err != nil {
		return nil, fmt.Errorf("encoding signal argument: %w", err)
	}
	options.ID = workflowID
	resp, err := wc.service.SignalWithStartWorkflowExecution(ctx, &SignalWithStartWorkflowExecutionRequest{
		Start:      StartWorkflowExecutionRequest{Namespace: wc.namespace, WorkflowID: workflowID, WorkflowType: workflowType, TaskQueue: options.TaskQueue, Input: input, Options: options},
		SignalName: signalName,
		SignalArg:  signal,
	})
	if err != nil {
		return nil, err
	}
	return &workflowRun{client: wc, workflowID: workflowID, runID: resp.RunID}, nil
}

func (wc *workflowClient) CancelWorkflow(ctx context.Context, workflowID string, runID string) error {
	return wc.service.RequestCancelWorkflowExecution(ctx, &RequestCancelWorkflowExecutionRequest{
		Namespace: wc.namespace,
		Execution: WorkflowExecution{WorkflowID: workflowID, RunID: runID},
	})
}

func (wc *workflowClient) TerminateWorkflow(ctx context.Context, workflowID string, runID string, reason string) error {
	return wc.service.TerminateWorkflowExecution(ctx, &TerminateWorkflowExecutionRequest{
		Namespace: wc.namespace,
		Execution: WorkflowExecution{WorkflowID: workflowID, RunID: runID},
		Reason:    reason,
	})
}

func (wc *workflowClient) GetWorkflowHistory(ctx context.Context, workflowID string, runID string) ([]*HistoryEvent, error) {
	resp, err := wc.service.GetWorkflowExecutionHistory(ctx, &GetWorkflowExecutionHistoryRequest{
		Namespace: wc.namespace,
		Execution: WorkflowExecution{WorkflowID: workflowID, RunID: runID},
	})
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (wc *workflowClient) CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, activityErr error) error {
	return wc.completeActivity(ctx, taskToken, nil, "", result, activityErr)
}

func (wc *workflowClient) CompleteActivityByID(ctx context.Context, namespace, workflowID, runID, activityID string, result interface{}, activityErr error) error {
	exec := WorkflowExecution{WorkflowID: workflowID, RunID: runID}
	return wc.completeActivity(ctx, nil, &exec, activityID, result, activityErr)
}

func (wc *workflowClient) completeActivity(ctx context.Context, taskToken []byte, exec *WorkflowExecution, activityID string, result interface{}, activityErr error) error {
	if activityErr != nil {
		var canceledErr *CanceledError
		if errors.As(activityErr, &canceledErr) {
			details, err := wc.valuesToPayloads(canceledErr.details)
			if err != nil {
				return err
			}
			return wc.service.RespondActivityTaskCanceled(ctx, &RespondActivityTaskCanceledRequest{TaskToken: taskToken, Execution: exec, ActivityID: activityID, Details: details, Identity: wc.options.Identity})
		}
		var appErr *ApplicationError
		if !errors.As(activityErr, &appErr) {
			appErr = NewApplicationError(activityErr.Error(), false, nil)
		}
		return wc.service.RespondActivityTaskFailed(ctx, &RespondActivityTaskFailedRequest{TaskToken: taskToken, Execution: exec, ActivityID: activityID, Failure: appErr, Identity: wc.options.Identity})
	}
	payload, err := wc.encodeArgs(result)
	if err != nil {
		return fmt.Errorf("encoding activity result: %w", err)
	}
	return wc.service.RespondActivityTaskCompleted(ctx, &RespondActivityTaskCompletedRequest{TaskToken: taskToken, Execution: exec, ActivityID: activityID, Result: payload, Identity: wc.options.Identity})
}

func (wc *workflowClient) RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details ...interface{}) error {
	return wc.recordHeartbeat(ctx, taskToken, nil, "", details...)
}

func (wc *workflowClient) RecordActivityHeartbeatByID(ctx context.Context, namespace, workflowID, runID, activityID string, details ...interface{}) error {
	exec := WorkflowExecution{WorkflowID: workflowID, RunID: runID}
	return wc.recordHeartbeat(ctx, nil, &exec, activityID, details...)
}

func (wc *workflowClient) recordHeartbeat(ctx context.Context, taskToken []byte, exec *WorkflowExecution, activityID string, details ...interface{}) error {
	payload, err := wc.encodeArgs(details...)
	if err != nil {
		return fmt.Errorf("encoding heartbeat details: %w", err)
	}
	resp, err := wc.service.RecordActivityTaskHeartbeat(ctx, &RecordActivityTaskHeartbeatRequest{TaskToken: taskToken, Execution: exec, ActivityID: activityID, Details: payload})
	if err != nil {
		return err
	}
	if resp.CancelRequested {
		return ErrActivityCanceled
	}
	return nil
}

func (wc *workflowClient) QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (Value, error) {
	payload, err := wc.encodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("encoding query arguments: %w", err)
	}
	resp, err := wc.service.QueryWorkflow(ctx, &QueryWorkflowRequest{
		Namespace: wc.namespace,
		Execution: WorkflowExecution{WorkflowID: workflowID, RunID: runID},
		QueryType: queryType,
		QueryArgs: payload,
	})
	if err != nil {
		return nil, err
	}
	var data []byte
	if resp.Result != nil && len(resp.Result.Data) > 0 {
		data = resp.Result.Data[0]
	}
	return newEncodedValue(data, wc.dataConverter), nil
}

// workflowRun is the WorkflowRun handle ExecuteWorkflow/GetWorkflow/
// SignalWithStartWorkflow return. Get polls GetWorkflowExecutionHistory
// until the response carries an Outcome, matching how a real client
// would long-poll a workflow service; WorkflowStateMachines.Outcome is
// what the in-memory ServiceClient test double reports back through that
// response field.
type workflowRun struct {
	client     *workflowClient
	workflowID string
	runID      string

	mu       sync.Mutex
	outcome  *WorkflowOutcome
}

func (r *workflowRun) GetID() string    { return r.workflowID }
func (r *workflowRun) GetRunID() string { return r.runID }

func (r *workflowRun) Get(ctx context.Context, valuePtr interface{}) error {
	outcome, err := r.pollOutcome(ctx)
	if err != nil {
		return err
	}
	switch {
	case outcome.Failure != nil:
		return outcome.Failure
	case outcome.Canceled:
		return NewCanceledError(newEncodedValues(outcome.Details, r.client.dataConverter))
	case outcome.ContinuedAsNewType != "":
		return &ContinueAsNewError{workflowType: outcome.ContinuedAsNewType, input: outcome.ContinuedAsNewInput}
	}
	if valuePtr == nil {
		return nil
	}
	return newEncodedValue(outcome.Result, r.client.dataConverter).Get(valuePtr)
}

func (r *workflowRun) pollOutcome(ctx context.Context) (*WorkflowOutcome, error) {
	r.mu.Lock()
	cached := r.outcome
	r.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	const pollInterval = 200 * time.Millisecond
	for {
		resp, err := r.client.service.GetWorkflowExecutionHistory(ctx, &GetWorkflowExecutionHistoryRequest{
			Namespace: r.client.namespace,
			Execution: WorkflowExecution{WorkflowID: r.workflowID, RunID: r.runID},
		})
		if err != nil {
			return nil, err
		}
		if resp.Outcome != nil {
			r.mu.Lock()
			r.outcome = resp.Outcome
			r.mu.Unlock()
			return resp.Outcome, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
