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

import "time"

// Attribute payloads for HistoryEvent.Attributes, one struct per event
// type that an entity state machine consumes. Field names that appear on
// both a command and its matching event (ActivityId, WorkflowId, TimerId,
// ...) are spelled identically so the cross-check in
// workflow_state_machines.go (spec.md section 4.D.5) can compare them
// directly.

type ActivityTaskScheduledAttributes struct {
	ActivityID   string
	ActivityType string
}

type ActivityTaskStartedAttributes struct {
	ScheduledEventID     int64
	Attempt              int32
	LastHeartbeatDetails []byte
}

type ActivityTaskCompletedAttributes struct {
	ScheduledEventID int64
	Result           []byte
}

type ActivityTaskFailedAttributes struct {
	ScheduledEventID int64
	Failure          *ApplicationError
}

type ActivityTaskTimedOutAttributes struct {
	ScheduledEventID int64
	TimeoutType      TimeoutType
}

type ActivityTaskCancelRequestedAttributes struct {
	ScheduledEventID int64
}

type ActivityTaskCanceledAttributes struct {
	ScheduledEventID int64
	Details          []byte
}

type TimerStartedAttributes struct {
	TimerID            string
	StartToFireTimeout time.Duration
}

type TimerFiredAttributes struct {
	TimerID        string
	StartedEventID int64
}

type TimerCanceledAttributes struct {
	TimerID string
}

type StartChildWorkflowExecutionInitiatedAttributes struct {
	WorkflowID   string
	WorkflowType string
}

type StartChildWorkflowExecutionFailedAttributes struct {
	WorkflowID string
}

type ChildWorkflowExecutionStartedAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
	RunID            string
}

type ChildWorkflowExecutionCompletedAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
	Result           []byte
}

type ChildWorkflowExecutionFailedAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
	Failure          *ApplicationError
}

type ChildWorkflowExecutionCanceledAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
}

type ChildWorkflowExecutionTimedOutAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
}

type SignalExternalWorkflowExecutionInitiatedAttributes struct {
	WorkflowID string
	SignalName string
	Control    string
}

type ExternalWorkflowExecutionSignaledAttributes struct {
	InitiatedEventID int64
}

type SignalExternalWorkflowExecutionFailedAttributes struct {
	InitiatedEventID int64
}

type RequestCancelExternalWorkflowExecutionInitiatedAttributes struct {
	WorkflowID        string
	Control           string
	ChildWorkflowOnly bool
}

type ExternalWorkflowExecutionCancelRequestedAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
}

type RequestCancelExternalWorkflowExecutionFailedAttributes struct {
	InitiatedEventID int64
	WorkflowID       string
}

type MarkerRecordedAttributes struct {
	MarkerName string
	Details    map[string][]byte
}

type UpsertWorkflowSearchAttributesAttributes struct {
	SearchAttributes map[string]interface{}
}

type WorkflowTaskStartedAttributes struct {
	CurrentTimeMillis int64
}

type WorkflowExecutionSignaledAttributes struct {
	SignalName string
	Input      []byte
}

type WorkflowExecutionCancelRequestedAttributes struct {
	Cause string
}
