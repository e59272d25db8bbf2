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

// Both SignalExternalMachine and CancelExternalMachine are "single
// request, single completion callback" machines (spec.md section 4.B);
// they share one definition since their state shape is identical
// (CREATED -> COMMAND_CREATED -> INITIATED -> COMPLETED), only the
// command/event types differ, which the caller supplies as an explicit
// trigger pair.

const (
	externalStateCreated        machineState = "CREATED"
	externalStateCommandCreated machineState = "COMMAND_CREATED"
	externalStateInitiated      machineState = "INITIATED"
	externalStateCompleted      machineState = "COMPLETED"
)

var signalExternalMachineDefinition *StateMachineDefinition
var signalExternalMachineDefinitionOnce sync.Once

func getSignalExternalMachineDefinition() *StateMachineDefinition {
	signalExternalMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("SignalExternal", externalStateCreated, externalStateCompleted)
		d.AddTransition(externalStateCreated, explicitEventSchedule, externalStateCommandCreated, nil)
		d.AddTransition(externalStateCommandCreated, EventTypeSignalExternalWorkflowExecutionInitiated, externalStateInitiated, nil)
		d.AddTransition(externalStateInitiated, EventTypeExternalWorkflowExecutionSignaled, externalStateCompleted, func(m machineInstance) {
			m.(*SignalExternalMachine).invokeCompletion(nil)
		})
		d.AddTransition(externalStateInitiated, EventTypeSignalExternalWorkflowExecutionFailed, externalStateCompleted, func(m machineInstance) {
			m.(*SignalExternalMachine).invokeCompletion(NewApplicationError("signal external workflow execution failed", true, nil))
		})
		signalExternalMachineDefinition = d
	})
	return signalExternalMachineDefinition
}

// SignalExternalMachine is the entity state machine for
// SignalExternalWorkflowExecution, spec.md section 4.B.
type SignalExternalMachine struct {
	*machineBase
	signalID string

	completionOnce sync.Once
	completion     func(err error)
}

func NewSignalExternalMachine(
	signalID, workflowID, signalName string,
	input []byte,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(err error),
) *SignalExternalMachine {
	base := newMachineBase(machineID{kind: entityKindSignalExternal, id: signalID}, getSignalExternalMachineDefinition(), commandSink, observer)
	s := &SignalExternalMachine{machineBase: base, signalID: signalID, completion: completion}
	s.setSelf(s)
	s.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type: CommandTypeSignalExternalWorkflowExecution,
		Attributes: SignalExternalWorkflowExecutionCommandAttributes{
			WorkflowID: workflowID,
			SignalName: signalName,
			Input:      input,
			Control:    signalID,
		},
	}, owner: s})
	return s
}

func (s *SignalExternalMachine) commandToEmit() *Command { return nil }
func (s *SignalExternalMachine) handleCommandSent()      {}
func (s *SignalExternalMachine) cancel()                 {} // no cancellation defined for signals

func (s *SignalExternalMachine) handleInitiated() { s.fire(EventTypeSignalExternalWorkflowExecutionInitiated) }
func (s *SignalExternalMachine) handleSignaled()  { s.fire(EventTypeExternalWorkflowExecutionSignaled) }
func (s *SignalExternalMachine) handleFailed()    { s.fire(EventTypeSignalExternalWorkflowExecutionFailed) }

func (s *SignalExternalMachine) invokeCompletion(err error) {
	s.completionOnce.Do(func() {
		if s.completion != nil {
			s.completion(err)
		}
	})
}

var cancelExternalMachineDefinition *StateMachineDefinition
var cancelExternalMachineDefinitionOnce sync.Once

func getCancelExternalMachineDefinition() *StateMachineDefinition {
	cancelExternalMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("CancelExternal", externalStateCreated, externalStateCompleted)
		d.AddTransition(externalStateCreated, explicitEventSchedule, externalStateCommandCreated, nil)
		d.AddTransition(externalStateCommandCreated, EventTypeRequestCancelExternalWorkflowExecutionInitiated, externalStateInitiated, nil)
		d.AddTransition(externalStateInitiated, EventTypeExternalWorkflowExecutionCancelRequested, externalStateCompleted, func(m machineInstance) {
			m.(*CancelExternalMachine).invokeCompletion(nil)
		})
		d.AddTransition(externalStateInitiated, EventTypeRequestCancelExternalWorkflowExecutionFailed, externalStateCompleted, func(m machineInstance) {
			m.(*CancelExternalMachine).invokeCompletion(NewApplicationError("request cancel external workflow execution failed", true, nil))
		})
		cancelExternalMachineDefinition = d
	})
	return cancelExternalMachineDefinition
}

// CancelExternalMachine is the entity state machine for
// RequestCancelExternalWorkflowExecution, spec.md section 4.B.
type CancelExternalMachine struct {
	*machineBase
	cancellationID string

	completionOnce sync.Once
	completion     func(err error)
}

func NewCancelExternalMachine(
	cancellationID, workflowID, runID string,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(err error),
) *CancelExternalMachine {
	base := newMachineBase(machineID{kind: entityKindCancelExternal, id: cancellationID}, getCancelExternalMachineDefinition(), commandSink, observer)
	c := &CancelExternalMachine{machineBase: base, cancellationID: cancellationID, completion: completion}
	c.setSelf(c)
	c.fire(explicitEventSchedule)
	commandSink(&CancellableCommand{Command: &Command{
		Type: CommandTypeRequestCancelExternalWorkflowExecution,
		Attributes: RequestCancelExternalWorkflowExecutionCommandAttributes{
			WorkflowID: workflowID,
			RunID:      runID,
			Control:    cancellationID,
		},
	}, owner: c})
	return c
}

func (c *CancelExternalMachine) commandToEmit() *Command { return nil }
func (c *CancelExternalMachine) handleCommandSent()      {}
func (c *CancelExternalMachine) cancel()                 {}

func (c *CancelExternalMachine) handleInitiated() {
	c.fire(EventTypeRequestCancelExternalWorkflowExecutionInitiated)
}
func (c *CancelExternalMachine) handleCancelRequested() {
	c.fire(EventTypeExternalWorkflowExecutionCancelRequested)
}
func (c *CancelExternalMachine) handleFailed() {
	c.fire(EventTypeRequestCancelExternalWorkflowExecutionFailed)
}

func (c *CancelExternalMachine) invokeCompletion(err error) {
	c.completionOnce.Do(func() {
		if c.completion != nil {
			c.completion(err)
		}
	})
}
