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

import "fmt"

// EventType enumerates the history event taxonomy of spec.md section 6.
// Values are grouped by entity so the zero value of each group is never
// confused with another group's zero value.
type EventType int32

const (
	EventTypeUnspecified EventType = iota

	EventTypeWorkflowExecutionStarted
	EventTypeWorkflowExecutionCompleted
	EventTypeWorkflowExecutionFailed
	EventTypeWorkflowExecutionTimedOut
	EventTypeWorkflowExecutionCanceled
	EventTypeWorkflowExecutionTerminated
	EventTypeWorkflowExecutionContinuedAsNew
	EventTypeWorkflowExecutionSignaled
	EventTypeWorkflowExecutionCancelRequested

	EventTypeWorkflowTaskScheduled
	EventTypeWorkflowTaskStarted
	EventTypeWorkflowTaskCompleted
	EventTypeWorkflowTaskFailed
	EventTypeWorkflowTaskTimedOut

	EventTypeActivityTaskScheduled
	EventTypeActivityTaskStarted
	EventTypeActivityTaskCompleted
	EventTypeActivityTaskFailed
	EventTypeActivityTaskTimedOut
	EventTypeActivityTaskCancelRequested
	EventTypeActivityTaskCanceled

	EventTypeTimerStarted
	EventTypeTimerFired
	EventTypeTimerCanceled

	EventTypeStartChildWorkflowExecutionInitiated
	EventTypeStartChildWorkflowExecutionFailed
	EventTypeChildWorkflowExecutionStarted
	EventTypeChildWorkflowExecutionCompleted
	EventTypeChildWorkflowExecutionFailed
	EventTypeChildWorkflowExecutionCanceled
	EventTypeChildWorkflowExecutionTimedOut
	EventTypeChildWorkflowExecutionTerminated

	EventTypeSignalExternalWorkflowExecutionInitiated
	EventTypeSignalExternalWorkflowExecutionFailed
	EventTypeExternalWorkflowExecutionSignaled

	EventTypeRequestCancelExternalWorkflowExecutionInitiated
	EventTypeRequestCancelExternalWorkflowExecutionFailed
	EventTypeExternalWorkflowExecutionCancelRequested

	EventTypeMarkerRecorded
	EventTypeUpsertWorkflowSearchAttributes
)

var eventTypeNames = map[EventType]string{
	EventTypeWorkflowExecutionStarted:                        "WorkflowExecutionStarted",
	EventTypeWorkflowExecutionCompleted:                       "WorkflowExecutionCompleted",
	EventTypeWorkflowExecutionFailed:                          "WorkflowExecutionFailed",
	EventTypeWorkflowExecutionTimedOut:                        "WorkflowExecutionTimedOut",
	EventTypeWorkflowExecutionCanceled:                        "WorkflowExecutionCanceled",
	EventTypeWorkflowExecutionTerminated:                      "WorkflowExecutionTerminated",
	EventTypeWorkflowExecutionContinuedAsNew:                  "WorkflowExecutionContinuedAsNew",
	EventTypeWorkflowExecutionSignaled:                        "WorkflowExecutionSignaled",
	EventTypeWorkflowExecutionCancelRequested:                 "WorkflowExecutionCancelRequested",
	EventTypeWorkflowTaskScheduled:                            "WorkflowTaskScheduled",
	EventTypeWorkflowTaskStarted:                              "WorkflowTaskStarted",
	EventTypeWorkflowTaskCompleted:                            "WorkflowTaskCompleted",
	EventTypeWorkflowTaskFailed:                               "WorkflowTaskFailed",
	EventTypeWorkflowTaskTimedOut:                             "WorkflowTaskTimedOut",
	EventTypeActivityTaskScheduled:                            "ActivityTaskScheduled",
	EventTypeActivityTaskStarted:                              "ActivityTaskStarted",
	EventTypeActivityTaskCompleted:                            "ActivityTaskCompleted",
	EventTypeActivityTaskFailed:                               "ActivityTaskFailed",
	EventTypeActivityTaskTimedOut:                             "ActivityTaskTimedOut",
	EventTypeActivityTaskCancelRequested:                      "ActivityTaskCancelRequested",
	EventTypeActivityTaskCanceled:                             "ActivityTaskCanceled",
	EventTypeTimerStarted:                                     "TimerStarted",
	EventTypeTimerFired:                                       "TimerFired",
	EventTypeTimerCanceled:                                    "TimerCanceled",
	EventTypeStartChildWorkflowExecutionInitiated:             "StartChildWorkflowExecutionInitiated",
	EventTypeStartChildWorkflowExecutionFailed:                "StartChildWorkflowExecutionFailed",
	EventTypeChildWorkflowExecutionStarted:                    "ChildWorkflowExecutionStarted",
	EventTypeChildWorkflowExecutionCompleted:                  "ChildWorkflowExecutionCompleted",
	EventTypeChildWorkflowExecutionFailed:                     "ChildWorkflowExecutionFailed",
	EventTypeChildWorkflowExecutionCanceled:                   "ChildWorkflowExecutionCanceled",
	EventTypeChildWorkflowExecutionTimedOut:                   "ChildWorkflowExecutionTimedOut",
	EventTypeChildWorkflowExecutionTerminated:                 "ChildWorkflowExecutionTerminated",
	EventTypeSignalExternalWorkflowExecutionInitiated:         "SignalExternalWorkflowExecutionInitiated",
	EventTypeSignalExternalWorkflowExecutionFailed:            "SignalExternalWorkflowExecutionFailed",
	EventTypeExternalWorkflowExecutionSignaled:                "ExternalWorkflowExecutionSignaled",
	EventTypeRequestCancelExternalWorkflowExecutionInitiated:  "RequestCancelExternalWorkflowExecutionInitiated",
	EventTypeRequestCancelExternalWorkflowExecutionFailed:     "RequestCancelExternalWorkflowExecutionFailed",
	EventTypeExternalWorkflowExecutionCancelRequested:         "ExternalWorkflowExecutionCancelRequested",
	EventTypeMarkerRecorded:                                   "MarkerRecorded",
	EventTypeUpsertWorkflowSearchAttributes:                   "UpsertWorkflowSearchAttributes",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

// MarkerName identifies the fixed set of marker-backed machines (spec.md
// section 6, "Marker metadata keys").
type MarkerName string

const (
	MarkerNameSideEffect        MarkerName = "SideEffect"
	MarkerNameVersion           MarkerName = "Version"
	MarkerNameLocalActivity     MarkerName = "LocalActivity"
	MarkerNameMutableSideEffect MarkerName = "MutableSideEffect"
)

// HistoryEvent is the immutable record described in spec.md section 3. It
// intentionally does not mirror the wire-level Temporal history.proto
// shape; see DESIGN.md for the rationale. Attributes is one of the
// Event*Attributes structs declared in attributes.go, selected by Type.
type HistoryEvent struct {
	EventID    int64
	Type       EventType
	Attributes interface{}
}

func (e *HistoryEvent) String() string {
	return fmt.Sprintf("HistoryEvent{ID: %d, Type: %v}", e.EventID, e.Type)
}

// isCommandEvent reports whether this event was generated by a previously
// issued command of this workflow and therefore must align 1-1 with the
// commands queue (spec.md section 3).
func (e *HistoryEvent) isCommandEvent() bool {
	switch e.Type {
	case EventTypeActivityTaskScheduled,
		EventTypeTimerStarted,
		EventTypeStartChildWorkflowExecutionInitiated,
		EventTypeSignalExternalWorkflowExecutionInitiated,
		EventTypeRequestCancelExternalWorkflowExecutionInitiated,
		EventTypeMarkerRecorded,
		EventTypeUpsertWorkflowSearchAttributes,
		EventTypeWorkflowExecutionCompleted,
		EventTypeWorkflowExecutionFailed,
		EventTypeWorkflowExecutionCanceled,
		EventTypeWorkflowExecutionContinuedAsNew,
		EventTypeActivityTaskCancelRequested:
		return true
	default:
		return false
	}
}
