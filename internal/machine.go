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

// entityKind tags which of the fifteen variants an entityStateMachine is,
// used to namespace its id within the coordinator's machine map (two
// variants are allowed to reuse the same user-chosen id, e.g. an activity
// and a timer both called "1").
type entityKind int32

const (
	entityKindActivity entityKind = iota
	entityKindTimer
	entityKindChildWorkflow
	entityKindSignalExternal
	entityKindCancelExternal
	entityKindSideEffect
	entityKindMutableSideEffect
	entityKindVersion
	entityKindLocalActivity
	entityKindUpsertSearchAttributes
	entityKindCompleteWorkflow
	entityKindFailWorkflow
	entityKindCancelWorkflow
	entityKindContinueAsNew
	entityKindWorkflowTask
)

// machineID namespaces a user/sdk-chosen id by entity kind, mirroring the
// teacher's decisionID.
type machineID struct {
	kind entityKind
	id   string
}

func (id machineID) String() string {
	return fmt.Sprintf("%v#%v", id.kind, id.id)
}

// entityStateMachine is the common surface the coordinator (D) drives
// every variant (B) through. Spec.md section 9 "Machine polymorphism":
// a thin interface, no deep class hierarchy.
type entityStateMachine interface {
	getID() machineID
	getState() machineState
	isFinalState() bool
	// cancel requests cancellation; semantics depend on current state
	// (spec.md section 4.B.5).
	cancel()
	// commandToEmit returns the Command this machine wants to emit in its
	// current state, or nil if it has nothing pending.
	commandToEmit() *Command
	// handleCommandSent notifies the machine that commandToEmit's value
	// has been moved from the cancellableCommands queue onto the
	// authoritative commands queue (spec.md section 4.D.7).
	handleCommandSent()
}

// machineBase is embedded by every concrete variant; it owns the shared
// StateMachineDefinition pointer and the current state, and implements
// the bookkeeping common to all of them (spec.md section 3,
// "EntityStateMachine").
type machineBase struct {
	id      machineID
	def     *StateMachineDefinition
	state   machineState
	data    interface{}
	history []machineState

	// coordinator plumbing, set at construction time.
	commandSink func(*CancellableCommand)
	observer    StateMachineObserver

	// self is the concrete wrapper embedding this machineBase (e.g. the
	// *ActivityMachine, not the *machineBase promoted-method receiver
	// fire itself runs with). Transition actions type-assert on the
	// concrete machine type (m.(*ActivityMachine)), so fire must hand
	// them self, not its own receiver. Set once by setSelf, immediately
	// after each constructor builds the concrete struct.
	self machineInstance
}

// setSelf records the concrete machine wrapping this machineBase. Every
// constructor must call it before the first fire.
func (m *machineBase) setSelf(self machineInstance) { m.self = self }

// StateMachineObserver is the "state-machine-sink" of spec.md section
// 4.B.1: an observer for tests/telemetry. It never drives behavior.
type StateMachineObserver interface {
	OnTransition(id string, from, to string, trigger interface{})
}

type noopObserver struct{}

func (noopObserver) OnTransition(string, string, string, interface{}) {}

func newMachineBase(id machineID, def *StateMachineDefinition, commandSink func(*CancellableCommand), observer StateMachineObserver) *machineBase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &machineBase{
		id:          id,
		def:         def,
		state:       def.initialState,
		commandSink: commandSink,
		observer:    observer,
		history:     []machineState{def.initialState},
	}
}

func (m *machineBase) getID() machineID { return m.id }

func (m *machineBase) getState() machineState { return m.state }

func (m *machineBase) isFinalState() bool { return m.def.isFinal(m.state) }

func (m *machineBase) getMachineData() interface{} { return m.data }

func (m *machineBase) setMachineData(d interface{}) { m.data = d }

// fire applies t against the shared definition. It panics with
// stateMachineIllegalStatePanic if no such transition is registered: per
// spec.md section 4.D, that situation is either a determinism violation
// (trigger came from history) or a programmer error (trigger came from
// code), and the caller is responsible for attaching the right context
// before it escapes the coordinator.
func (m *machineBase) fire(t trigger) {
	next, action, ok := m.def.apply(m.state, t)
	if !ok {
		panicIllegalState(fmt.Sprintf("%v: no transition for state=%v trigger=%v (history=%v)", m.id, m.state, t, m.history))
	}
	prev := m.state
	m.state = next
	m.history = append(m.history, next)
	if action != nil {
		self := m.self
		if self == nil {
			self = m
		}
		action(self)
	}
	m.observer.OnTransition(m.id.String(), string(prev), string(next), t)
}

// canFire reports whether t has a registered transition from the current
// state, without applying it. Used by machines that need to probe before
// deciding which trigger to fire (e.g. activity cancellation policy).
func (m *machineBase) canFire(t trigger) bool {
	_, _, ok := m.def.apply(m.state, t)
	return ok
}

// stateMachineIllegalStatePanic is raised when a state machine is driven
// through a transition its definition does not know about.
type stateMachineIllegalStatePanic struct {
	message string
}

func (p stateMachineIllegalStatePanic) String() string { return p.message }

func panicIllegalState(message string) {
	panic(stateMachineIllegalStatePanic{message: message})
}

// CancellableCommand wraps a Command with the bookkeeping the coordinator
// needs before the command is shipped to the transport: ownership,
// whether it has since been cancelled (and should therefore never be
// sent), and a back-reference so the owning machine can be notified once
// its matching event arrives. Spec.md section 3.
type CancellableCommand struct {
	Command   *Command
	owner     entityStateMachine
	cancelled bool
}

func (c *CancellableCommand) isCancelled() bool { return c.cancelled }

func (c *CancellableCommand) cancel() { c.cancelled = true }
