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
	"errors"
	"fmt"
	"reflect"
)

// ErrorDetailsValues implements Values directly over the raw, already
// in-process arguments an error was constructed with (as opposed to
// encodedValues, which defers decoding bytes received from elsewhere):
// no DataConverter round-trip is needed since Get just copies the
// caller's own values back out by position.
type ErrorDetailsValues []interface{}

// HasValues reports whether any details were supplied.
func (d ErrorDetailsValues) HasValues() bool {
	return len(d) > 0
}

// Get copies each stored detail into the corresponding valuePtr by
// reflection, the same shape as NewTimeoutError/NewCanceledError/
// NewApplicationError's variadic details constructors expect back out.
func (d ErrorDetailsValues) Get(valuePtrs ...interface{}) error {
	if !d.HasValues() {
		return errors.New("value not set")
	}
	if len(valuePtrs) > len(d) {
		return fmt.Errorf("requested %d values, have %d", len(valuePtrs), len(d))
	}
	for i, valuePtr := range valuePtrs {
		rv := reflect.ValueOf(valuePtr)
		if rv.Kind() != reflect.Ptr {
			return fmt.Errorf("value: %v of type: %T is not a pointer", valuePtr, valuePtr)
		}
		elem := rv.Elem()
		detail := reflect.ValueOf(d[i])
		if !detail.IsValid() {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		if !detail.Type().AssignableTo(elem.Type()) {
			return fmt.Errorf("detail %d of type %T is not assignable to %T", i, d[i], valuePtr)
		}
		elem.Set(detail)
	}
	return nil
}

// TimeoutType distinguishes the four places a workflow or activity can
// time out, spec.md section 7.
type TimeoutType int32

const (
	TimeoutTypeUnspecified TimeoutType = iota
	TimeoutTypeStartToClose
	TimeoutTypeScheduleToStart
	TimeoutTypeScheduleToClose
	TimeoutTypeHeartbeat
)

func (t TimeoutType) String() string {
	switch t {
	case TimeoutTypeStartToClose:
		return "StartToClose"
	case TimeoutTypeScheduleToStart:
		return "ScheduleToStart"
	case TimeoutTypeScheduleToClose:
		return "ScheduleToClose"
	case TimeoutTypeHeartbeat:
		return "Heartbeat"
	default:
		return "Unspecified"
	}
}

// RetryStatus carries the outcome of an activity/child-workflow retry
// sequence onto the error surfaced to workflow code.
type RetryStatus int32

const (
	RetryStatusUnspecified RetryStatus = iota
	RetryStatusInProgress
	RetryStatusTimeout
	RetryStatusNonRetryableFailure
	RetryStatusMaximumAttemptsReached
	RetryStatusCancelRequested
)

// ActivityType identifies an activity by its registered name, mirroring
// the wire-level ActivityType the transport carries; see DESIGN.md for
// why this engine represents it as a plain struct rather than a
// generated protobuf type.
type ActivityType struct {
	Name string
}

/*
If activity fails then *ActivityError is returned to the workflow code. The error has important information about activity
and actual error which caused activity failure. This internal error can be unwrapped using errors.Unwrap() or checked using errors.As().
Below are the possible types of internal error:
1) *ApplicationError: (this should be the most common one)
	*ApplicationError can be returned in two cases:
		- If activity implementation returns *ApplicationError by using NewApplicationError() API.
		  The err would contain a message, details, and NonRetryable flag. Workflow code could check this flag and details to determine
		  what kind of error it was and take actions based on it. The details is encoded payload which workflow code could extract
		  to strong typed variable. Workflow code needs to know what the types of the encoded details are before extracting them.
		- If activity implementation returns errors other than from NewApplicationError() API. In this case GetOriginalType()
		  will return orginal type of an error represented as string. Workflow code could check this type to determine what kind of error it was
		  and take actions based on the type. These errors are retryable by default, unless error type is specified in retry policy.
2) *CanceledError:
	If activity was canceled, internal error will be an instance of *CanceledError. When activity cancels itself by
	returning NewCancelError() it would supply optional details which could be extracted by workflow code.
3) *TimeoutError:
	If activity was timed out (several timeout types), internal error will be an instance of *TimeoutError. The err contains
	details about what type of timeout it was.
4) *PanicError:
	If activity code panic while executing, temporal activity worker will report it as activity failure to temporal server.
	The SDK will present that failure as *PanicError. The err contains a string	representation of the panic message and
	the call stack when panic was happen.

Workflow code could handle errors based on different types of error. Below is sample code of how error handling looks like.

err := workflow.ExecuteActivity(ctx, MyActivity, ...).Get(ctx, nil)
if err != nil {
	var applicationErr *ApplicationError
	if errors.As(err, &applicationError) {
		// handle activity errors (created via NewApplicationError() API)
		if !applicationErr.NonRetryable() {
			// manually retry activity
		}
		var detailMsg string // assuming activity return error by NewApplicationError("message", true, "string details")
		applicationErr.Details(&detailMsg) // extract strong typed details

		// handle activity errors (errors created other than using NewApplicationError() API)
		switch err.OriginalType() {
		case "CustomErrTypeA":
			// handle CustomErrTypeA
		case CustomErrTypeB:
			// handle CustomErrTypeB
		default:
			// newer version of activity could return new errors that workflow was not aware of.
		}
	}

	var canceledErr *CanceledError
	if errors.As(err, &canceledErr) {
		// handle cancellation
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		// handle timeout, could check timeout type by timeoutErr.TimeoutType()
        switch err.TimeoutType() {
        case TimeoutTypeScheduleToStart:
                // Handle ScheduleToStart timeout.
        case TimeoutTypeStartToClose:
                // Handle StartToClose timeout.
        case TimeoutTypeHeartbeat:
                // Handle heartbeat timeout.
        default:
        }
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		// handle panic, message and stack trace are available by panicErr.Error() and panicErr.StackTrace()
	}
}

Errors from child workflow should be handled in a similar way, except that instance of *ChildWorkflowExecutionError is returned to
workflow code. It will contains *ActivityError, which in turn will contains on of the errors above.
When panic happen in workflow implementation code, SDK catches that panic and causing the decision timeout.
That decision task will be retried at a later time (with exponential backoff retry intervals).

Workflow consumers will get an instance of *WorkflowExecutionError. This error will contains one of errors above.
*/

type (
	// ApplicationError returned from activity implementations with message and optional details.
	ApplicationError struct {
		temporalError
		message      string
		originalType string
		nonRetryable bool
		cause        error
		details      Values
	}

	// TimeoutError returned when activity or child workflow timed out.
	TimeoutError struct {
		temporalError
		timeoutType          TimeoutType
		lastHeartbeatDetails Values
		cause                error
	}

	// CanceledError returned when operation was canceled.
	CanceledError struct {
		temporalError
		details Values
	}

	// TerminatedError returned when workflow was terminated.
	TerminatedError struct {
		temporalError
	}

	// PanicError contains information about panicked workflow/activity.
	PanicError struct {
		temporalError
		value      interface{}
		stackTrace string
	}

	// workflowPanicError contains information about panicked workflow.
	// Used to distinguish go panic in the workflow code from a PanicError returned from a workflow function.
	workflowPanicError struct {
		value      interface{}
		stackTrace string
	}

	// ContinueAsNewError contains information about how to continue the workflow as new.
	ContinueAsNewError struct {
		workflowType string
		input        []byte
	}

	// UnknownExternalWorkflowExecutionError can be returned when external workflow doesn't exist
	UnknownExternalWorkflowExecutionError struct{}

	// ServerError can be returned from server.
	ServerError struct {
		temporalError
		message      string
		nonRetryable bool
		cause        error
	}

	// ActivityError is returned from workflow when activity returned an error.
	// Unwrap this error to get actual cause.
	ActivityError struct {
		temporalError
		scheduledEventID int64
		startedEventID   int64
		identity         string
		activityType     *ActivityType
		activityID       string
		retryStatus      RetryStatus
		cause            error
	}

	// ChildWorkflowExecutionError is returned from workflow when child workflow returned an error.
	// Unwrap this error to get actual cause.
	ChildWorkflowExecutionError struct {
		temporalError
		namespace        string
		workflowID       string
		runID            string
		workflowType     string
		initiatedEventID int64
		startedEventID   int64
		retryStatus      RetryStatus
		cause            error
	}

	// NonDeterministicError is raised when a recorded event cannot be
	// reconciled with the command the current code generated: wrong order,
	// wrong type, or a mismatched identifier (spec.md section 7). It is
	// always fatal to the in-flight workflow task.
	NonDeterministicError struct {
		message string
	}

	// InternalWorkflowTaskError wraps any other unexpected failure inside
	// the coordinator, carrying a snapshot of replay state for diagnostics
	// (spec.md section 7).
	InternalWorkflowTaskError struct {
		cause                      error
		previousStartedEventID     int64
		workflowTaskStartedEventID int64
		currentStartedEventID      int64
	}

	// ProgressRegressionError is raised when previousStartedEventId <
	// currentStartedEventId: the service has lost progress. The coordinator
	// that observes this must be discarded, not retried in place (spec.md
	// section 7).
	ProgressRegressionError struct {
		previousStartedEventID int64
		currentStartedEventID  int64
	}

	// WorkflowExecutionError is returned from workflow.
	// Unwrap this error to get actual cause.
	WorkflowExecutionError struct {
		workflowID   string
		runID        string
		workflowType string
		cause        error
	}

	temporalError struct{}
)

// NewNonDeterministicError creates a NonDeterministicError instance.
func NewNonDeterministicError(message string) *NonDeterministicError {
	return &NonDeterministicError{message: message}
}

func (e *NonDeterministicError) Error() string { return e.message }

// NewInternalWorkflowTaskError creates an InternalWorkflowTaskError wrapping
// cause with the replay-state snapshot the coordinator held at the time of
// failure.
func NewInternalWorkflowTaskError(cause error, previousStartedEventID, workflowTaskStartedEventID, currentStartedEventID int64) *InternalWorkflowTaskError {
	return &InternalWorkflowTaskError{
		cause:                      cause,
		previousStartedEventID:     previousStartedEventID,
		workflowTaskStartedEventID: workflowTaskStartedEventID,
		currentStartedEventID:      currentStartedEventID,
	}
}

func (e *InternalWorkflowTaskError) Error() string {
	return fmt.Sprintf("internal workflow task error (previousStartedEventId: %d, workflowTaskStartedEventId: %d, currentStartedEventId: %d): %v",
		e.previousStartedEventID, e.workflowTaskStartedEventID, e.currentStartedEventID, e.cause)
}

func (e *InternalWorkflowTaskError) Unwrap() error { return e.cause }

// NewProgressRegressionError creates a ProgressRegressionError instance.
func NewProgressRegressionError(previousStartedEventID, currentStartedEventID int64) *ProgressRegressionError {
	return &ProgressRegressionError{previousStartedEventID: previousStartedEventID, currentStartedEventID: currentStartedEventID}
}

func (e *ProgressRegressionError) Error() string {
	return fmt.Sprintf("progress regression: previousStartedEventId (%d) < currentStartedEventId (%d)",
		e.previousStartedEventID, e.currentStartedEventID)
}

// ErrNoData is returned when trying to extract strong typed data while there is no data available.
var ErrNoData = errors.New("no data available")

// ErrTooManyArg is returned when trying to extract strong typed data with more arguments than available data.
var ErrTooManyArg = errors.New("too many arguments")

// ErrActivityResultPending is returned from activity's implementation to indicate the activity is not completed when
// activity method returns. Activity needs to be completed by Client.CompleteActivity() separately. For example, if an
// activity require human interaction (like approve an expense report), the activity could return activity.ErrResultPending
// which indicate the activity is not done yet. Then, when the waited human action happened, it needs to trigger something
// that could report the activity completed event to temporal server via Client.CompleteActivity() API.
var ErrActivityResultPending = errors.New("not error: do not autocomplete, using Client.CompleteActivity() to complete")

// NewApplicationError create new instance of *ApplicationError with message and optional details.
func NewApplicationError(message string, nonRetryable bool, cause error, details ...interface{}) *ApplicationError {
	applicationErr := &ApplicationError{
		message:      message,
		originalType: "ApplicationError",
		nonRetryable: nonRetryable,
		cause:        cause}

	// When return error to user, details may already be a decoded Values
	// (e.g. forwarded from RecordActivityHeartbeat's own details), ready to
	// decode again via Get without re-encoding.
	if len(details) == 1 {
		if d, ok := details[0].(Values); ok {
			applicationErr.details = d
			return applicationErr
		}
	}

	// When create error for server, use ErrorDetailsValues as details to hold values and encode later
	applicationErr.details = ErrorDetailsValues(details)
	return applicationErr
}

// NewTimeoutError creates TimeoutError instance.
// Use NewHeartbeatTimeoutError to create heartbeat TimeoutError.
func NewTimeoutError(timeoutType TimeoutType, cause error, lastHeatbeatDetails ...interface{}) *TimeoutError {
	timeoutErr := &TimeoutError{
		timeoutType: timeoutType,
		cause:       cause,
	}

	if len(lastHeatbeatDetails) == 1 {
		if d, ok := lastHeatbeatDetails[0].(Values); ok {
			timeoutErr.lastHeartbeatDetails = d
			return timeoutErr
		}
	}
	timeoutErr.lastHeartbeatDetails = ErrorDetailsValues(lastHeatbeatDetails)
	return timeoutErr
}

// NewHeartbeatTimeoutError creates TimeoutError instance.
func NewHeartbeatTimeoutError(details ...interface{}) *TimeoutError {
	return NewTimeoutError(TimeoutTypeHeartbeat, nil, details...)
}

// NewCanceledError creates CanceledError instance.
func NewCanceledError(details ...interface{}) *CanceledError {
	if len(details) == 1 {
		if d, ok := details[0].(Values); ok {
			return &CanceledError{details: d}
		}
	}
	return &CanceledError{details: ErrorDetailsValues(details)}
}

// NewServerError create new instance of *ServerError with message.
func NewServerError(message string, nonRetryable bool, cause error) *ServerError {
	return &ServerError{message: message, nonRetryable: nonRetryable, cause: cause}
}

// NewActivityError creates ActivityError instance.
func NewActivityError(
	scheduledEventID int64,
	startedEventID int64,
	identity string,
	activityType *ActivityType,
	activityID string,
	retryStatus RetryStatus,
	cause error,
) *ActivityError {
	return &ActivityError{
		scheduledEventID: scheduledEventID,
		startedEventID:   startedEventID,
		identity:         identity,
		activityType:     activityType,
		activityID:       activityID,
		retryStatus:      retryStatus,
		cause:            cause,
	}
}

// NewChildWorkflowExecutionError creates ChildWorkflowExecutionError instance.
func NewChildWorkflowExecutionError(
	namespace string,
	workflowID string,
	runID string,
	workflowType string,
	initiatedEventID int64,
	startedEventID int64,
	retryStatus RetryStatus,
	cause error,
) *ChildWorkflowExecutionError {
	return &ChildWorkflowExecutionError{
		namespace:        namespace,
		workflowID:       workflowID,
		runID:            runID,
		workflowType:     workflowType,
		initiatedEventID: initiatedEventID,
		startedEventID:   startedEventID,
		retryStatus:      retryStatus,
		cause:            cause,
	}
}

// NewWorkflowExecutionError creates WorkflowExecutionError instance.
func NewWorkflowExecutionError(
	workflowID string,
	runID string,
	workflowType string,
	cause error,
) *WorkflowExecutionError {
	return &WorkflowExecutionError{
		workflowID:   workflowID,
		runID:        runID,
		workflowType: workflowType,
		cause:        cause,
	}
}

// IsCanceledError returns whether error in CanceledError.
func IsCanceledError(err error) bool {
	var canceledErr *CanceledError
	return errors.As(err, &canceledErr)
}

// NewContinueAsNewError creates a ContinueAsNewError and, as a side effect,
// queues the ContinueAsNewWorkflowExecution command (spec.md section 4.B
// "ContinueAsNew") the same way CompleteWorkflow/FailWorkflow queue theirs.
// Workflow code should return the result so the dispatcher unwinds the
// coroutine; input must already be encoded through the caller's
// DataConverter, matching ContinueAsNewWorkflow's own contract.
func NewContinueAsNewError(ctx Context, workflowType string, input []byte) *ContinueAsNewError {
	ContinueAsNewWorkflow(ctx, workflowType, input)
	return &ContinueAsNewError{workflowType: workflowType, input: input}
}

// Error from error interface
func (e *ApplicationError) Error() string {
	return e.message
}

// OriginalType returns original error type represented as string.
func (e *ApplicationError) OriginalType() string {
	return e.originalType
}

// HasDetails return if this error has strong typed detail data.
func (e *ApplicationError) HasDetails() bool {
	return e.details != nil && e.details.HasValues()
}

// Details extracts strong typed detail data of this custom error. If there is no details, it will return ErrNoData.
func (e *ApplicationError) Details(d ...interface{}) error {
	if !e.HasDetails() {
		return ErrNoData
	}
	return e.details.Get(d...)
}

// NonRetryable indicated if error is not retryable.
func (e *ApplicationError) NonRetryable() bool {
	return e.nonRetryable
}

func (e *ApplicationError) Unwrap() error {
	return e.cause
}

// Error from error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TimeoutType: %v, Cause: %v", e.timeoutType, e.cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.cause
}

// TimeoutType return timeout type of this error
func (e *TimeoutError) TimeoutType() TimeoutType {
	return e.timeoutType
}

// HasLastHeartbeatDetails return if this error has strong typed detail data.
func (e *TimeoutError) HasLastHeartbeatDetails() bool {
	return e.lastHeartbeatDetails != nil && e.lastHeartbeatDetails.HasValues()
}

// LastHeartbeatDetails extracts strong typed detail data of this error. If there is no details, it will return ErrNoData.
func (e *TimeoutError) LastHeartbeatDetails(d ...interface{}) error {
	if !e.HasLastHeartbeatDetails() {
		return ErrNoData
	}
	return e.lastHeartbeatDetails.Get(d...)
}

// Error from error interface
func (e *CanceledError) Error() string {
	return "Canceled"
}

// HasDetails return if this error has strong typed detail data.
func (e *CanceledError) HasDetails() bool {
	return e.details != nil && e.details.HasValues()
}

// Details extracts strong typed detail data of this error.
func (e *CanceledError) Details(d ...interface{}) error {
	if !e.HasDetails() {
		return ErrNoData
	}
	return e.details.Get(d...)
}

func newPanicError(value interface{}, stackTrace string) *PanicError {
	return &PanicError{value: value, stackTrace: stackTrace}
}

func newWorkflowPanicError(value interface{}, stackTrace string) *workflowPanicError {
	return &workflowPanicError{value: value, stackTrace: stackTrace}
}

// Error from error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("%v", e.value)
}

// StackTrace return stack trace of the panic
func (e *PanicError) StackTrace() string {
	return e.stackTrace
}

// Error from error interface
func (e *workflowPanicError) Error() string {
	return fmt.Sprintf("%v", e.value)
}

// StackTrace return stack trace of the panic
func (e *workflowPanicError) StackTrace() string {
	return e.stackTrace
}

// Error from error interface
func (e *ContinueAsNewError) Error() string {
	return "ContinueAsNew"
}

// WorkflowType returns the workflow type name of the new run.
func (e *ContinueAsNewError) WorkflowType() string {
	return e.workflowType
}

// Input returns the already-encoded input of the new run.
func (e *ContinueAsNewError) Input() []byte {
	return e.input
}

// newTerminatedError creates NewTerminatedError instance
func newTerminatedError() *TerminatedError {
	return &TerminatedError{}
}

// Error from error interface
func (e *TerminatedError) Error() string {
	return "Terminated"
}

// newUnknownExternalWorkflowExecutionError creates UnknownExternalWorkflowExecutionError instance
func newUnknownExternalWorkflowExecutionError() *UnknownExternalWorkflowExecutionError {
	return &UnknownExternalWorkflowExecutionError{}
}

// Error from error interface
func (e *UnknownExternalWorkflowExecutionError) Error() string {
	return "UnknownExternalWorkflowExecution"
}

// Error from error interface
func (e *ServerError) Error() string {
	return e.message
}

func (e *ServerError) Unwrap() error {
	return e.cause
}

func (e *ActivityError) Error() string {
	return fmt.Sprintf("activity task error (scheduledEventID: %d, startedEventID: %d, identity: %s): %v", e.scheduledEventID, e.startedEventID, e.identity, e.cause)
}

func (e *ActivityError) Unwrap() error {
	return e.cause
}

// Error from error interface
func (e *ChildWorkflowExecutionError) Error() string {
	return fmt.Sprintf("child workflow execution error (workflowID: %s, runID: %s, initiatedEventID: %d, startedEventID: %d, workflowType: %s): %v",
		e.workflowID, e.runID, e.initiatedEventID, e.startedEventID, e.workflowType, e.cause)
}

func (e *ChildWorkflowExecutionError) Unwrap() error {
	return e.cause
}

// Error from error interface
func (e *WorkflowExecutionError) Error() string {
	return fmt.Sprintf("workflow execution error (workflowID: %s, runID: %s, workflowType: %s): %v",
		e.workflowID, e.runID, e.workflowType, e.cause)
}

func (e *WorkflowExecutionError) Unwrap() error {
	return e.cause
}

// Wire-level failure marshaling (error <-> serialized Failure payload) is
// a payload-codec concern and lives in the converter package's boundary
// with the transport, per spec.md section 1; this file stops at the Go
// error taxonomy itself.
