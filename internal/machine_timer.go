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
	"sync"
	"time"
)

const (
	timerStateCreated              machineState = "CREATED"
	timerStateStartCommandCreated  machineState = "START_COMMAND_CREATED"
	timerStateStarted              machineState = "STARTED"
	timerStateCancelCommandCreated machineState = "CANCEL_COMMAND_CREATED"
	timerStateFired                machineState = "FIRED"
	timerStateCanceled             machineState = "CANCELED"
)

var timerMachineDefinition *StateMachineDefinition
var timerMachineDefinitionOnce sync.Once

func getTimerMachineDefinition() *StateMachineDefinition {
	timerMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("Timer", timerStateCreated, timerStateFired, timerStateCanceled)

		d.AddTransition(timerStateCreated, explicitEventSchedule, timerStateStartCommandCreated, nil)

		// Cancelling before the StartTimer command's matching event has
		// even been recorded cancels the pending command outright and
		// resolves the callback synchronously (spec.md section 4.B).
		d.AddTransition(timerStateStartCommandCreated, explicitEventCancelAbandon, timerStateCanceled, func(m machineInstance) {
			t := m.(*TimerMachine)
			t.startCommand.cancel()
			t.invokeCompletion(NewCanceledError())
		})
		d.AddTransition(timerStateStartCommandCreated, EventTypeTimerStarted, timerStateStarted, nil)

		d.AddTransition(timerStateStarted, EventTypeTimerFired, timerStateFired, func(m machineInstance) {
			m.(*TimerMachine).invokeCompletion(nil)
		})
		d.AddTransition(timerStateStarted, explicitEventCancelAbandon, timerStateCancelCommandCreated, func(m machineInstance) {
			t := m.(*TimerMachine)
			t.cancelCommand = &CancellableCommand{Command: &Command{
				Type:       CommandTypeCancelTimer,
				Attributes: CancelTimerCommandAttributes{TimerID: t.timerID},
			}, owner: t}
			t.commandSink(t.cancelCommand)
		})

		d.AddTransition(timerStateCancelCommandCreated, EventTypeTimerCanceled, timerStateCanceled, func(m machineInstance) {
			m.(*TimerMachine).invokeCompletion(NewCanceledError())
		})

		timerMachineDefinition = d
	})
	return timerMachineDefinition
}

// TimerMachine is the entity state machine for StartTimer, spec.md
// section 4.B.
type TimerMachine struct {
	*machineBase
	timerID      string
	duration     time.Duration
	startCommand *CancellableCommand
	cancelCommand *CancellableCommand

	completionOnce sync.Once
	completion     func(err error)
}

// NewTimerMachine constructs the machine and fires SCHEDULE, emitting the
// StartTimer command.
func NewTimerMachine(
	timerID string,
	duration time.Duration,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(err error),
) *TimerMachine {
	base := newMachineBase(machineID{kind: entityKindTimer, id: timerID}, getTimerMachineDefinition(), commandSink, observer)
	t := &TimerMachine{
		machineBase: base,
		timerID:     timerID,
		duration:    duration,
		completion:  completion,
	}
	t.setSelf(t)
	t.fire(explicitEventSchedule)
	t.startCommand = &CancellableCommand{Command: &Command{
		Type:       CommandTypeStartTimer,
		Attributes: StartTimerCommandAttributes{TimerID: timerID, StartToFireTimeout: duration},
	}, owner: t}
	commandSink(t.startCommand)
	return t
}

func (t *TimerMachine) commandToEmit() *Command { return nil }
func (t *TimerMachine) handleCommandSent()      {}

// cancel always uses the "abandon" explicit trigger: the timer FSM has
// only one cancellation path, unlike the activity's four policies.
func (t *TimerMachine) cancel() {
	if t.isFinalState() || t.startCommand.isCancelled() {
		return
	}
	t.fire(explicitEventCancelAbandon)
}

func (t *TimerMachine) handleStarted() { t.fire(EventTypeTimerStarted) }
func (t *TimerMachine) handleFired()   { t.fire(EventTypeTimerFired) }
func (t *TimerMachine) handleCanceled() { t.fire(EventTypeTimerCanceled) }

func (t *TimerMachine) invokeCompletion(err error) {
	t.completionOnce.Do(func() {
		if t.completion != nil {
			t.completion(err)
		}
	})
}
