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

import "sync"

// ChildWorkflowCancellationType mirrors ActivityCancellationType but for
// child workflows, spec.md section 4.B.
type ChildWorkflowCancellationType int32

const (
	ChildWorkflowCancellationWaitCancellationCompleted ChildWorkflowCancellationType = iota
	ChildWorkflowCancellationTryCancel
	ChildWorkflowCancellationWaitCancellationRequested
	ChildWorkflowCancellationAbandon
)

const (
	childWFStateCreated              machineState = "CREATED"
	childWFStateStartCommandCreated  machineState = "START_COMMAND_CREATED"
	childWFStateInitiated            machineState = "INITIATED"
	childWFStateStarted              machineState = "STARTED"
	childWFStateCancelCommandCreated machineState = "CANCEL_COMMAND_CREATED"
	childWFStateCompleted            machineState = "COMPLETED"
	childWFStateFailed               machineState = "FAILED"
	childWFStateCanceled             machineState = "CANCELED"
	childWFStateTimedOut             machineState = "TIMED_OUT"
	childWFStateStartFailed          machineState = "START_FAILED"
)

var childWFMachineDefinition *StateMachineDefinition
var childWFMachineDefinitionOnce sync.Once

func getChildWFMachineDefinition() *StateMachineDefinition {
	childWFMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("ChildWorkflow", childWFStateCreated,
			childWFStateCompleted, childWFStateFailed, childWFStateCanceled, childWFStateTimedOut, childWFStateStartFailed)

		d.AddTransition(childWFStateCreated, explicitEventSchedule, childWFStateStartCommandCreated, nil)
		d.AddTransition(childWFStateStartCommandCreated, EventTypeStartChildWorkflowExecutionInitiated, childWFStateInitiated, nil)
		d.AddTransition(childWFStateStartCommandCreated, EventTypeStartChildWorkflowExecutionFailed, childWFStateStartFailed, func(m machineInstance) {
			c := m.(*ChildWorkflowMachine)
			c.invokeStarted(NewApplicationError("failed to start child workflow execution", true, nil))
			c.invokeCompletion(nil, NewApplicationError("failed to start child workflow execution", true, nil))
		})
		d.AddTransition(childWFStateStartCommandCreated, explicitEventCancelAbandon, childWFStateCanceled, func(m machineInstance) {
			c := m.(*ChildWorkflowMachine)
			c.startCommand.cancel()
			c.invokeStarted(NewCanceledError())
			c.invokeCompletion(nil, NewCanceledError())
		})

		d.AddTransition(childWFStateInitiated, EventTypeChildWorkflowExecutionStarted, childWFStateStarted, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onStarted()
		})
		d.AddTransition(childWFStateInitiated, EventTypeChildWorkflowExecutionFailed, childWFStateFailed, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onFailed()
		})
		d.AddTransition(childWFStateInitiated, EventTypeChildWorkflowExecutionTimedOut, childWFStateTimedOut, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onTimedOut()
		})
		d.AddTransition(childWFStateInitiated, EventTypeChildWorkflowExecutionCanceled, childWFStateCanceled, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onCanceled()
		})

		d.AddTransition(childWFStateStarted, EventTypeChildWorkflowExecutionCompleted, childWFStateCompleted, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onCompleted()
		})
		d.AddTransition(childWFStateStarted, EventTypeChildWorkflowExecutionFailed, childWFStateFailed, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onFailed()
		})
		d.AddTransition(childWFStateStarted, EventTypeChildWorkflowExecutionTimedOut, childWFStateTimedOut, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onTimedOut()
		})
		d.AddTransition(childWFStateStarted, EventTypeChildWorkflowExecutionCanceled, childWFStateCanceled, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onCanceled()
		})
		d.AddTransition(childWFStateStarted, explicitEventCancelAbandon, childWFStateCanceled, func(m machineInstance) {
			m.(*ChildWorkflowMachine).invokeCompletion(nil, NewCanceledError())
		})
		d.AddTransition(childWFStateStarted, explicitEventCancelRequest, childWFStateCancelCommandCreated, func(m machineInstance) {
			c := m.(*ChildWorkflowMachine)
			c.cancelCommand = &CancellableCommand{Command: &Command{
				Type: CommandTypeRequestCancelExternalWorkflowExecution,
				Attributes: RequestCancelExternalWorkflowExecutionCommandAttributes{
					WorkflowID:        c.workflowID,
					ChildWorkflowOnly: true,
				},
			}, owner: c}
			c.commandSink(c.cancelCommand)
			if c.cancellationType == ChildWorkflowCancellationTryCancel {
				c.invokeCompletion(nil, NewCanceledError())
			}
		})

		d.AddTransition(childWFStateCancelCommandCreated, EventTypeExternalWorkflowExecutionCancelRequested, childWFStateCancelCommandCreated, func(m machineInstance) {
			c := m.(*ChildWorkflowMachine)
			if c.cancellationType == ChildWorkflowCancellationWaitCancellationRequested {
				c.invokeCompletion(nil, NewCanceledError())
			}
		})
		d.AddTransition(childWFStateCancelCommandCreated, EventTypeChildWorkflowExecutionCompleted, childWFStateCompleted, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onCompleted()
		})
		d.AddTransition(childWFStateCancelCommandCreated, EventTypeChildWorkflowExecutionFailed, childWFStateFailed, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onFailed()
		})
		d.AddTransition(childWFStateCancelCommandCreated, EventTypeChildWorkflowExecutionTimedOut, childWFStateTimedOut, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onTimedOut()
		})
		d.AddTransition(childWFStateCancelCommandCreated, EventTypeChildWorkflowExecutionCanceled, childWFStateCanceled, func(m machineInstance) {
			m.(*ChildWorkflowMachine).onCanceled()
		})

		childWFMachineDefinition = d
	})
	return childWFMachineDefinition
}

// ChildWorkflowMachine is the entity state machine for a started child
// workflow, with two distinct completion callbacks (spec.md section 4.B):
// started (fires once the child's own first workflow task is running)
// and completed (fires on any terminal child-workflow event).
type ChildWorkflowMachine struct {
	*machineBase
	workflowID       string
	workflowType     string
	cancellationType ChildWorkflowCancellationType
	startCommand     *CancellableCommand
	cancelCommand    *CancellableCommand

	startedOnce    sync.Once
	completionOnce sync.Once
	onStartedCB    func(runID string, err error)
	onCompletedCB  func(result []byte, err error)

	pendingResult []byte
	pendingErr    error
	pendingRunID  string
}

// NewChildWorkflowMachine constructs the machine and fires SCHEDULE,
// emitting StartChildWorkflowExecution.
func NewChildWorkflowMachine(
	workflowID, workflowType string,
	input []byte,
	cancellationType ChildWorkflowCancellationType,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	onStarted func(runID string, err error),
	onCompleted func(result []byte, err error),
) *ChildWorkflowMachine {
	base := newMachineBase(machineID{kind: entityKindChildWorkflow, id: workflowID}, getChildWFMachineDefinition(), commandSink, observer)
	c := &ChildWorkflowMachine{
		machineBase:      base,
		workflowID:       workflowID,
		workflowType:     workflowType,
		cancellationType: cancellationType,
		onStartedCB:      onStarted,
		onCompletedCB:    onCompleted,
	}
	c.setSelf(c)
	c.fire(explicitEventSchedule)
	c.startCommand = &CancellableCommand{Command: &Command{
		Type: CommandTypeStartChildWorkflowExecution,
		Attributes: StartChildWorkflowExecutionCommandAttributes{
			WorkflowID:   workflowID,
			WorkflowType: workflowType,
			Input:        input,
		},
	}, owner: c}
	commandSink(c.startCommand)
	return c
}

func (c *ChildWorkflowMachine) commandToEmit() *Command { return nil }
func (c *ChildWorkflowMachine) handleCommandSent()      {}

func (c *ChildWorkflowMachine) cancel() {
	if c.isFinalState() {
		return
	}
	if c.cancellationType == ChildWorkflowCancellationAbandon {
		c.fire(explicitEventCancelAbandon)
		return
	}
	if c.canFire(explicitEventCancelRequest) {
		c.fire(explicitEventCancelRequest)
		return
	}
	// Not yet started remotely: behaves like abandon locally, there is
	// nothing in flight on the service side to request cancellation of.
	c.fire(explicitEventCancelAbandon)
}

func (c *ChildWorkflowMachine) handleInitiated()  { c.fire(EventTypeStartChildWorkflowExecutionInitiated) }
func (c *ChildWorkflowMachine) handleStartFailed() { c.fire(EventTypeStartChildWorkflowExecutionFailed) }
func (c *ChildWorkflowMachine) handleStarted(runID string) {
	c.pendingRunID = runID
	c.fire(EventTypeChildWorkflowExecutionStarted)
}
func (c *ChildWorkflowMachine) handleCompleted(result []byte) {
	c.pendingResult = result
	c.fire(EventTypeChildWorkflowExecutionCompleted)
}
func (c *ChildWorkflowMachine) handleFailed(err error) {
	c.pendingErr = err
	c.fire(EventTypeChildWorkflowExecutionFailed)
}
func (c *ChildWorkflowMachine) handleTimedOut() {
	c.pendingErr = NewTimeoutError(TimeoutTypeScheduleToClose, nil)
	c.fire(EventTypeChildWorkflowExecutionTimedOut)
}
func (c *ChildWorkflowMachine) handleCanceled() { c.fire(EventTypeChildWorkflowExecutionCanceled) }
func (c *ChildWorkflowMachine) handleCancelRequested() {
	c.fire(EventTypeExternalWorkflowExecutionCancelRequested)
}

func (c *ChildWorkflowMachine) onStarted()   { c.invokeStarted(nil) }
func (c *ChildWorkflowMachine) onCompleted() { c.invokeCompletion(c.pendingResult, nil) }
func (c *ChildWorkflowMachine) onFailed()    { c.invokeCompletion(nil, c.pendingErr) }
func (c *ChildWorkflowMachine) onTimedOut()  { c.invokeCompletion(nil, c.pendingErr) }
func (c *ChildWorkflowMachine) onCanceled()  { c.invokeCompletion(nil, NewCanceledError()) }

func (c *ChildWorkflowMachine) invokeStarted(err error) {
	c.startedOnce.Do(func() {
		if c.onStartedCB != nil {
			c.onStartedCB(c.pendingRunID, err)
		}
	})
}

func (c *ChildWorkflowMachine) invokeCompletion(result []byte, err error) {
	c.completionOnce.Do(func() {
		if c.onCompletedCB != nil {
			c.onCompletedCB(result, err)
		}
	})
}
