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

// feedEntityMachine translates one HistoryEvent into the concrete
// handle* call on the machine that owns it. It is the one place that
// knows about every EntityStateMachine variant's handler method names, so
// that workflow_state_machines.go itself only deals in the
// entityStateMachine interface (spec.md section 9, "machine polymorphism").
func feedEntityMachine(m entityStateMachine, event *HistoryEvent) {
	switch machine := m.(type) {
	case *ActivityMachine:
		switch a := event.Attributes.(type) {
		case ActivityTaskScheduledAttributes:
			machine.handleScheduledEventID(event.EventID)
		case ActivityTaskStartedAttributes:
			machine.handleStarted(a.LastHeartbeatDetails)
		case ActivityTaskCompletedAttributes:
			machine.handleCompleted(a.Result)
		case ActivityTaskFailedAttributes:
			machine.handleFailed(a.Failure)
		case ActivityTaskTimedOutAttributes:
			machine.handleTimedOut(NewTimeoutError(a.TimeoutType, nil))
		case ActivityTaskCancelRequestedAttributes:
			machine.handleCancelRequested()
		case ActivityTaskCanceledAttributes:
			machine.handleCanceled()
		}

	case *TimerMachine:
		switch event.Attributes.(type) {
		case TimerStartedAttributes:
			machine.handleStarted()
		case TimerFiredAttributes:
			machine.handleFired()
		case TimerCanceledAttributes:
			machine.handleCanceled()
		}

	case *ChildWorkflowMachine:
		switch a := event.Attributes.(type) {
		case StartChildWorkflowExecutionInitiatedAttributes:
			machine.handleInitiated()
		case StartChildWorkflowExecutionFailedAttributes:
			machine.handleStartFailed()
		case ChildWorkflowExecutionStartedAttributes:
			machine.handleStarted(a.RunID)
		case ChildWorkflowExecutionCompletedAttributes:
			machine.handleCompleted(a.Result)
		case ChildWorkflowExecutionFailedAttributes:
			machine.handleFailed(a.Failure)
		case ChildWorkflowExecutionCanceledAttributes:
			machine.handleCanceled()
		case ChildWorkflowExecutionTimedOutAttributes:
			machine.handleTimedOut()
		}

	case *SignalExternalMachine:
		switch event.Attributes.(type) {
		case SignalExternalWorkflowExecutionInitiatedAttributes:
			machine.handleInitiated()
		case ExternalWorkflowExecutionSignaledAttributes:
			machine.handleSignaled()
		case SignalExternalWorkflowExecutionFailedAttributes:
			machine.handleFailed()
		}

	case *CancelExternalMachine:
		switch event.Attributes.(type) {
		case RequestCancelExternalWorkflowExecutionInitiatedAttributes:
			machine.handleInitiated()
		case ExternalWorkflowExecutionCancelRequestedAttributes:
			machine.handleCancelRequested()
		case RequestCancelExternalWorkflowExecutionFailedAttributes:
			machine.handleFailed()
		}

	case *SideEffectMachine:
		if a, ok := event.Attributes.(MarkerRecordedAttributes); ok {
			machine.handleMarkerRecorded(a.Details)
		}

	case *MutableSideEffectMachine:
		if a, ok := event.Attributes.(MarkerRecordedAttributes); ok {
			machine.handleMarkerRecorded(a.Details)
		}

	case *VersionMachine:
		if a, ok := event.Attributes.(MarkerRecordedAttributes); ok {
			machine.handleMarkerRecorded(decodeIntDetail(a.Details["version"]))
		}

	case *LocalActivityMachine:
		if a, ok := event.Attributes.(MarkerRecordedAttributes); ok {
			var err error
			if msg, present := a.Details["error"]; present {
				err = NewApplicationError(string(msg), false, nil)
			}
			machine.handleMarkerRecorded(a.Details["result"], err)
		}

	case *UpsertSearchAttributesMachine:
		machine.handleRecorded()

	case *CompleteWorkflowMachine:
		machine.handleRecorded()

	case *FailWorkflowMachine:
		machine.handleRecorded()

	case *CancelWorkflowMachine:
		machine.handleRecorded()

	case *ContinueAsNewMachine:
		machine.handleRecorded()

	case *WorkflowTaskMachine:
		switch event.Type {
		case EventTypeWorkflowTaskScheduled:
			machine.handleScheduled()
		case EventTypeWorkflowTaskStarted:
			machine.handleStarted()
		case EventTypeWorkflowTaskCompleted:
			machine.handleCompleted()
		case EventTypeWorkflowTaskFailed:
			machine.handleFailed()
		case EventTypeWorkflowTaskTimedOut:
			machine.handleTimedOut()
		}
	}
}
