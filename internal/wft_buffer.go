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

// WFTBuffer groups a flat history event stream into workflow-task-sized
// batches, per spec.md section 4.C. A single gRPC GetWorkflowExecutionHistory
// page can straddle more than one workflow task boundary (or, symmetrically,
// one workflow task's events can straddle more than one page); WFTBuffer
// absorbs both without the coordinator ever seeing a partial task.
//
// A batch is delimited by the pair of events
// (WorkflowTaskStarted, {WorkflowTaskCompleted | WorkflowTaskFailed |
// WorkflowTaskTimedOut}) that closes it; until the closing event arrives,
// events are held rather than handed to the caller.
type WFTBuffer struct {
	pending []*HistoryEvent
	// currentStartedEventID is the EventID of the most recently buffered
	// WorkflowTaskStarted event, or 0 if none is currently open.
	currentStartedEventID int64
}

// NewWFTBuffer constructs an empty buffer.
func NewWFTBuffer() *WFTBuffer {
	return &WFTBuffer{}
}

// AddEvent appends a single history event to the buffer. It never itself
// returns a batch; call FetchNextTask to drain completed batches.
func (b *WFTBuffer) AddEvent(event *HistoryEvent) error {
	if event == nil {
		return fmt.Errorf("wftbuffer: nil event")
	}
	b.pending = append(b.pending, event)
	if event.Type == EventTypeWorkflowTaskStarted {
		b.currentStartedEventID = event.EventID
	}
	return nil
}

// HasNextTask reports whether at least one complete workflow task's worth
// of events is currently buffered.
func (b *WFTBuffer) HasNextTask() bool {
	for _, e := range b.pending {
		if isWorkflowTaskClosingEvent(e.Type) {
			return true
		}
	}
	return false
}

// FetchNextTask removes and returns the events belonging to the oldest
// complete workflow task in the buffer (spec.md section 4.C). ok is false
// if no complete task is currently buffered. Events are returned in
// original order, including the closing WorkflowTaskCompleted/Failed/
// TimedOut event itself.
func (b *WFTBuffer) FetchNextTask() (events []*HistoryEvent, ok bool) {
	for i, e := range b.pending {
		if isWorkflowTaskClosingEvent(e.Type) {
			events = b.pending[:i+1]
			b.pending = b.pending[i+1:]
			return events, true
		}
	}
	return nil, false
}

// Clear discards all buffered events. Used when a poll response indicates
// the workflow execution has been reset and replay must restart from
// scratch.
func (b *WFTBuffer) Clear() {
	b.pending = nil
	b.currentStartedEventID = 0
}

func isWorkflowTaskClosingEvent(t EventType) bool {
	switch t {
	case EventTypeWorkflowTaskCompleted, EventTypeWorkflowTaskFailed, EventTypeWorkflowTaskTimedOut:
		return true
	default:
		return false
	}
}
