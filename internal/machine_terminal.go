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

// UpsertSearchAttributesMachine, CompleteWorkflowMachine,
// FailWorkflowMachine, CancelWorkflowMachine and ContinueAsNewMachine are
// all "single command, no completion callback" machines: once the
// coordinator (section 4.D) emits their command the workflow function has
// nothing further to wait on, the command's outcome is the workflow
// execution's own outcome. WorkflowTaskMachine is the exception: it tracks
// the scheduled/started/completed/failed/timed-out lifecycle of the
// workflow task itself (spec.md section 4.B). WFTBuffer (section 4.C)
// groups events into batches on its own and does not consult it.

const (
	oneShotStateCreated        machineState = "CREATED"
	oneShotStateCommandCreated machineState = "COMMAND_CREATED"
	oneShotStateCompleted      machineState = "COMMAND_RECORDED"
)

var upsertSearchAttributesMachineDefinition *StateMachineDefinition
var upsertSearchAttributesMachineDefinitionOnce sync.Once

func getUpsertSearchAttributesMachineDefinition() *StateMachineDefinition {
	upsertSearchAttributesMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("UpsertSearchAttributes", oneShotStateCreated, oneShotStateCompleted)
		d.AddTransition(oneShotStateCreated, explicitEventSchedule, oneShotStateCommandCreated, nil)
		d.AddTransition(oneShotStateCommandCreated, EventTypeUpsertWorkflowSearchAttributes, oneShotStateCompleted, nil)
		upsertSearchAttributesMachineDefinition = d
	})
	return upsertSearchAttributesMachineDefinition
}

// UpsertSearchAttributesMachine records a change to the workflow's
// indexed search attributes (spec.md section 4.B); it never blocks the
// workflow function so it carries no completion callback.
type UpsertSearchAttributesMachine struct {
	*machineBase
}

func NewUpsertSearchAttributesMachine(
	id string,
	attrs map[string]interface{},
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
) *UpsertSearchAttributesMachine {
	base := newMachineBase(machineID{kind: entityKindUpsertSearchAttributes, id: id}, getUpsertSearchAttributesMachineDefinition(), commandSink, observer)
	u := &UpsertSearchAttributesMachine{machineBase: base}
	u.setSelf(u)
	u.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeUpsertWorkflowSearchAttributes,
		Attributes: UpsertWorkflowSearchAttributesCommandAttributes{SearchAttributes: attrs},
	}, owner: u})
	return u
}

func (u *UpsertSearchAttributesMachine) commandToEmit() *Command { return nil }
func (u *UpsertSearchAttributesMachine) handleCommandSent()      {}
func (u *UpsertSearchAttributesMachine) cancel()                 {}
func (u *UpsertSearchAttributesMachine) handleRecorded() {
	u.fire(EventTypeUpsertWorkflowSearchAttributes)
}

func newTerminalMachineDefinition(name string, commandEvent EventType) *StateMachineDefinition {
	d := NewStateMachineDefinition(name, oneShotStateCreated, oneShotStateCompleted)
	d.AddTransition(oneShotStateCreated, explicitEventSchedule, oneShotStateCommandCreated, nil)
	d.AddTransition(oneShotStateCommandCreated, commandEvent, oneShotStateCompleted, nil)
	return d
}

var completeWorkflowMachineDefinition *StateMachineDefinition
var completeWorkflowMachineDefinitionOnce sync.Once

func getCompleteWorkflowMachineDefinition() *StateMachineDefinition {
	completeWorkflowMachineDefinitionOnce.Do(func() {
		completeWorkflowMachineDefinition = newTerminalMachineDefinition("CompleteWorkflow", EventTypeWorkflowExecutionCompleted)
	})
	return completeWorkflowMachineDefinition
}

// CompleteWorkflowMachine emits the CompleteWorkflowExecution command
// that ends a successful workflow run (spec.md section 4.B).
type CompleteWorkflowMachine struct {
	*machineBase
}

func NewCompleteWorkflowMachine(result []byte, commandSink func(*CancellableCommand), observer StateMachineObserver) *CompleteWorkflowMachine {
	base := newMachineBase(machineID{kind: entityKindCompleteWorkflow, id: "complete"}, getCompleteWorkflowMachineDefinition(), commandSink, observer)
	c := &CompleteWorkflowMachine{machineBase: base}
	c.setSelf(c)
	c.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeCompleteWorkflowExecution,
		Attributes: CompleteWorkflowExecutionCommandAttributes{Result: result},
	}, owner: c})
	return c
}

func (c *CompleteWorkflowMachine) commandToEmit() *Command { return nil }
func (c *CompleteWorkflowMachine) handleCommandSent()      {}
func (c *CompleteWorkflowMachine) cancel()                 {}
func (c *CompleteWorkflowMachine) handleRecorded()         { c.fire(EventTypeWorkflowExecutionCompleted) }

var failWorkflowMachineDefinition *StateMachineDefinition
var failWorkflowMachineDefinitionOnce sync.Once

func getFailWorkflowMachineDefinition() *StateMachineDefinition {
	failWorkflowMachineDefinitionOnce.Do(func() {
		failWorkflowMachineDefinition = newTerminalMachineDefinition("FailWorkflow", EventTypeWorkflowExecutionFailed)
	})
	return failWorkflowMachineDefinition
}

// FailWorkflowMachine emits the FailWorkflowExecution command that ends
// a workflow run in failure (spec.md section 4.B).
type FailWorkflowMachine struct {
	*machineBase
}

func NewFailWorkflowMachine(failure *ApplicationError, commandSink func(*CancellableCommand), observer StateMachineObserver) *FailWorkflowMachine {
	base := newMachineBase(machineID{kind: entityKindFailWorkflow, id: "fail"}, getFailWorkflowMachineDefinition(), commandSink, observer)
	f := &FailWorkflowMachine{machineBase: base}
	f.setSelf(f)
	f.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeFailWorkflowExecution,
		Attributes: FailWorkflowExecutionCommandAttributes{Failure: failure},
	}, owner: f})
	return f
}

func (f *FailWorkflowMachine) commandToEmit() *Command { return nil }
func (f *FailWorkflowMachine) handleCommandSent()      {}
func (f *FailWorkflowMachine) cancel()                 {}
func (f *FailWorkflowMachine) handleRecorded()         { f.fire(EventTypeWorkflowExecutionFailed) }

var cancelWorkflowMachineDefinition *StateMachineDefinition
var cancelWorkflowMachineDefinitionOnce sync.Once

func getCancelWorkflowMachineDefinition() *StateMachineDefinition {
	cancelWorkflowMachineDefinitionOnce.Do(func() {
		cancelWorkflowMachineDefinition = newTerminalMachineDefinition("CancelWorkflow", EventTypeWorkflowExecutionCanceled)
	})
	return cancelWorkflowMachineDefinition
}

// CancelWorkflowMachine emits the CancelWorkflowExecution command that
// ends a workflow run as cancelled (spec.md section 4.B).
type CancelWorkflowMachine struct {
	*machineBase
}

func NewCancelWorkflowMachine(details []byte, commandSink func(*CancellableCommand), observer StateMachineObserver) *CancelWorkflowMachine {
	base := newMachineBase(machineID{kind: entityKindCancelWorkflow, id: "cancel"}, getCancelWorkflowMachineDefinition(), commandSink, observer)
	c := &CancelWorkflowMachine{machineBase: base}
	c.setSelf(c)
	c.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeCancelWorkflowExecution,
		Attributes: CancelWorkflowExecutionCommandAttributes{Details: details},
	}, owner: c})
	return c
}

func (c *CancelWorkflowMachine) commandToEmit() *Command { return nil }
func (c *CancelWorkflowMachine) handleCommandSent()      {}
func (c *CancelWorkflowMachine) cancel()                 {}
func (c *CancelWorkflowMachine) handleRecorded()         { c.fire(EventTypeWorkflowExecutionCanceled) }

var continueAsNewMachineDefinition *StateMachineDefinition
var continueAsNewMachineDefinitionOnce sync.Once

func getContinueAsNewMachineDefinition() *StateMachineDefinition {
	continueAsNewMachineDefinitionOnce.Do(func() {
		continueAsNewMachineDefinition = newTerminalMachineDefinition("ContinueAsNew", EventTypeWorkflowExecutionContinuedAsNew)
	})
	return continueAsNewMachineDefinition
}

// ContinueAsNewMachine emits the ContinueAsNewWorkflowExecution command
// that ends the current run and atomically starts a fresh one with a
// clean event history (spec.md section 4.B).
type ContinueAsNewMachine struct {
	*machineBase
}

func NewContinueAsNewMachine(workflowType string, input []byte, commandSink func(*CancellableCommand), observer StateMachineObserver) *ContinueAsNewMachine {
	base := newMachineBase(machineID{kind: entityKindContinueAsNew, id: "continue-as-new"}, getContinueAsNewMachineDefinition(), commandSink, observer)
	c := &ContinueAsNewMachine{machineBase: base}
	c.setSelf(c)
	c.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeContinueAsNewWorkflowExecution,
		Attributes: ContinueAsNewWorkflowExecutionCommandAttributes{WorkflowType: workflowType, Input: input},
	}, owner: c})
	return c
}

func (c *ContinueAsNewMachine) commandToEmit() *Command { return nil }
func (c *ContinueAsNewMachine) handleCommandSent()      {}
func (c *ContinueAsNewMachine) cancel()                 {}
func (c *ContinueAsNewMachine) handleRecorded() {
	c.fire(EventTypeWorkflowExecutionContinuedAsNew)
}

const (
	workflowTaskStateCreated   machineState = "CREATED"
	workflowTaskStateScheduled machineState = "SCHEDULED"
	workflowTaskStateStarted   machineState = "STARTED"
	workflowTaskStateCompleted machineState = "COMPLETED"
	workflowTaskStateFailed    machineState = "FAILED"
	workflowTaskStateTimedOut  machineState = "TIMED_OUT"
)

var workflowTaskMachineDefinition *StateMachineDefinition
var workflowTaskMachineDefinitionOnce sync.Once

func getWorkflowTaskMachineDefinition() *StateMachineDefinition {
	workflowTaskMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("WorkflowTask", workflowTaskStateCreated,
			workflowTaskStateCompleted, workflowTaskStateFailed, workflowTaskStateTimedOut)

		d.AddTransition(workflowTaskStateCreated, EventTypeWorkflowTaskScheduled, workflowTaskStateScheduled, nil)
		d.AddTransition(workflowTaskStateScheduled, EventTypeWorkflowTaskStarted, workflowTaskStateStarted, nil)
		d.AddTransition(workflowTaskStateStarted, EventTypeWorkflowTaskCompleted, workflowTaskStateCompleted, nil)
		d.AddTransition(workflowTaskStateStarted, EventTypeWorkflowTaskFailed, workflowTaskStateFailed, func(m machineInstance) {
			m.(*WorkflowTaskMachine).reset()
		})
		d.AddTransition(workflowTaskStateStarted, EventTypeWorkflowTaskTimedOut, workflowTaskStateTimedOut, func(m machineInstance) {
			m.(*WorkflowTaskMachine).reset()
		})
		// A failed/timed-out task is immediately followed by a freshly
		// scheduled one, so the machine is long-lived across many workflow
		// tasks rather than being recreated each time (spec.md section 4.C,
		// "WFTBuffer groups events into workflow-task-sized batches").
		d.AddTransition(workflowTaskStateFailed, EventTypeWorkflowTaskScheduled, workflowTaskStateScheduled, nil)
		d.AddTransition(workflowTaskStateTimedOut, EventTypeWorkflowTaskScheduled, workflowTaskStateScheduled, nil)

		workflowTaskMachineDefinition = d
	})
	return workflowTaskMachineDefinition
}

// WorkflowTaskMachine tracks the lifecycle of the workflow task currently
// being processed, independent of any single entity's command/event pair
// (spec.md section 4.B, 4.C).
type WorkflowTaskMachine struct {
	*machineBase
}

func NewWorkflowTaskMachine(observer StateMachineObserver) *WorkflowTaskMachine {
	base := newMachineBase(machineID{kind: entityKindWorkflowTask, id: "workflow-task"}, getWorkflowTaskMachineDefinition(), func(*CancellableCommand) {}, observer)
	w := &WorkflowTaskMachine{machineBase: base}
	w.setSelf(w)
	return w
}

func (w *WorkflowTaskMachine) commandToEmit() *Command { return nil }
func (w *WorkflowTaskMachine) handleCommandSent()      {}
func (w *WorkflowTaskMachine) cancel()                 {}

func (w *WorkflowTaskMachine) handleScheduled() { w.fire(EventTypeWorkflowTaskScheduled) }
func (w *WorkflowTaskMachine) handleStarted()   { w.fire(EventTypeWorkflowTaskStarted) }
func (w *WorkflowTaskMachine) handleCompleted() { w.fire(EventTypeWorkflowTaskCompleted) }
func (w *WorkflowTaskMachine) handleFailed()    { w.fire(EventTypeWorkflowTaskFailed) }
func (w *WorkflowTaskMachine) handleTimedOut()  { w.fire(EventTypeWorkflowTaskTimedOut) }

// reset is the transition action attached to the FAILED/TIMED_OUT states
// above. It does nothing; a transition may also be declared with no action
// at all.
func (w *WorkflowTaskMachine) reset() {}
