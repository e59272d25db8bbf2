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
	"fmt"
	"time"
)

// CommandType enumerates the command taxonomy of spec.md section 6. This
// mirrors the naming the Temporal/Cadence SDK family settled on after
// renaming "Decision" to "Command"; the mechanics below are a direct
// generalization of the teacher's decisionType/decisionsHelper pair.
type CommandType int32

const (
	CommandTypeUnspecified CommandType = iota
	CommandTypeScheduleActivityTask
	CommandTypeRequestCancelActivityTask
	CommandTypeStartTimer
	CommandTypeCancelTimer
	CommandTypeStartChildWorkflowExecution
	CommandTypeRequestCancelExternalWorkflowExecution
	CommandTypeSignalExternalWorkflowExecution
	CommandTypeRecordMarker
	CommandTypeUpsertWorkflowSearchAttributes
	CommandTypeCompleteWorkflowExecution
	CommandTypeFailWorkflowExecution
	CommandTypeCancelWorkflowExecution
	CommandTypeContinueAsNewWorkflowExecution
)

func (t CommandType) String() string {
	switch t {
	case CommandTypeScheduleActivityTask:
		return "ScheduleActivityTask"
	case CommandTypeRequestCancelActivityTask:
		return "RequestCancelActivityTask"
	case CommandTypeStartTimer:
		return "StartTimer"
	case CommandTypeCancelTimer:
		return "CancelTimer"
	case CommandTypeStartChildWorkflowExecution:
		return "StartChildWorkflowExecution"
	case CommandTypeRequestCancelExternalWorkflowExecution:
		return "RequestCancelExternalWorkflowExecution"
	case CommandTypeSignalExternalWorkflowExecution:
		return "SignalExternalWorkflowExecution"
	case CommandTypeRecordMarker:
		return "RecordMarker"
	case CommandTypeUpsertWorkflowSearchAttributes:
		return "UpsertWorkflowSearchAttributes"
	case CommandTypeCompleteWorkflowExecution:
		return "CompleteWorkflowExecution"
	case CommandTypeFailWorkflowExecution:
		return "FailWorkflowExecution"
	case CommandTypeCancelWorkflowExecution:
		return "CancelWorkflowExecution"
	case CommandTypeContinueAsNewWorkflowExecution:
		return "ContinueAsNewWorkflowExecution"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// expectedEventType returns the event type that a command of this type
// must produce, used by the command/event cross-check in spec.md
// section 4.D.5. Commands with no single matching event type (cancellation
// commands, whose outcome depends on machine state) return
// EventTypeUnspecified and are matched structurally instead.
func (t CommandType) expectedEventType() EventType {
	switch t {
	case CommandTypeScheduleActivityTask:
		return EventTypeActivityTaskScheduled
	case CommandTypeStartTimer:
		return EventTypeTimerStarted
	case CommandTypeStartChildWorkflowExecution:
		return EventTypeStartChildWorkflowExecutionInitiated
	case CommandTypeSignalExternalWorkflowExecution:
		return EventTypeSignalExternalWorkflowExecutionInitiated
	case CommandTypeRequestCancelExternalWorkflowExecution:
		return EventTypeRequestCancelExternalWorkflowExecutionInitiated
	case CommandTypeRecordMarker:
		return EventTypeMarkerRecorded
	case CommandTypeUpsertWorkflowSearchAttributes:
		return EventTypeUpsertWorkflowSearchAttributes
	case CommandTypeCompleteWorkflowExecution:
		return EventTypeWorkflowExecutionCompleted
	case CommandTypeFailWorkflowExecution:
		return EventTypeWorkflowExecutionFailed
	case CommandTypeCancelWorkflowExecution:
		return EventTypeWorkflowExecutionCanceled
	case CommandTypeContinueAsNewWorkflowExecution:
		return EventTypeWorkflowExecutionContinuedAsNew
	default:
		return EventTypeUnspecified
	}
}

// Command is the structured message emitted to the service described in
// spec.md section 3. Attributes is one of the Command*Attributes structs
// below, selected by Type.
type Command struct {
	Type       CommandType
	Attributes interface{}
}

type ScheduleActivityTaskCommandAttributes struct {
	ActivityID             string
	ActivityType           string
	Input                  []byte
	ScheduleToCloseTimeout time.Duration
}

type RequestCancelActivityTaskCommandAttributes struct {
	ScheduledEventID int64
}

type StartTimerCommandAttributes struct {
	TimerID            string
	StartToFireTimeout time.Duration
}

type CancelTimerCommandAttributes struct {
	TimerID string
}

type StartChildWorkflowExecutionCommandAttributes struct {
	WorkflowID   string
	WorkflowType string
	Input        []byte
}

type RequestCancelExternalWorkflowExecutionCommandAttributes struct {
	WorkflowID        string
	RunID             string
	Control           string
	ChildWorkflowOnly bool
}

type SignalExternalWorkflowExecutionCommandAttributes struct {
	WorkflowID string
	RunID      string
	SignalName string
	Input      []byte
	Control    string
}

type RecordMarkerCommandAttributes struct {
	MarkerName string
	Details    map[string][]byte
}

type UpsertWorkflowSearchAttributesCommandAttributes struct {
	SearchAttributes map[string]interface{}
}

type CompleteWorkflowExecutionCommandAttributes struct {
	Result []byte
}

type FailWorkflowExecutionCommandAttributes struct {
	Failure *ApplicationError
}

type CancelWorkflowExecutionCommandAttributes struct {
	Details []byte
}

type ContinueAsNewWorkflowExecutionCommandAttributes struct {
	WorkflowType string
	Input        []byte
}
