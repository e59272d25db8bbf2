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

// machineState is a per-variant state name (e.g. "SCHEDULED_EVENT_RECORDED"
// for the activity machine). Each EntityStateMachine variant defines its
// own small set of these; they are not shared across variants the way
// CommandType/EventType are.
type machineState string

// trigger is whatever drives a transition: a CommandType (the "command
// created" transition), an EventType (a replayed history event), or an
// explicitEvent local to the owning machine (e.g. the internal SCHEDULE
// trigger fired by the constructor). Spec.md section 4.A.
type trigger interface{}

// explicitEvent is a machine-local trigger that does not correspond to
// any CommandType or EventType.
type explicitEvent string

const explicitEventSchedule explicitEvent = "SCHEDULE"

type transitionKey struct {
	state   machineState
	trigger trigger
}

type transition struct {
	to     machineState
	action func(m machineInstance)
}

// machineInstance is the minimal state a transition action needs: the
// ability to read/write the per-instance data blob that
// StateMachineDefinition itself has no opinion about.
type machineInstance interface {
	getMachineData() interface{}
	setMachineData(interface{})
}

// StateMachineDefinition is the generic FSM builder of spec.md section 4.A:
// given an initial state and one or more final states, callers add
// transitions of the form (state, trigger) -> newState[, action]. Lookup
// is a single map access, O(1) as required. A definition is built once
// (typically in a package-level sync.Once) and shared by every instance
// of that EntityStateMachine variant; each instance only carries its own
// current machineState.
type StateMachineDefinition struct {
	name         string
	initialState machineState
	finalStates  map[machineState]bool
	transitions  map[transitionKey]transition
}

// NewStateMachineDefinition creates an empty definition. Call AddTransition
// to populate it before any instance uses it.
func NewStateMachineDefinition(name string, initial machineState, finalStates ...machineState) *StateMachineDefinition {
	fs := make(map[machineState]bool, len(finalStates))
	for _, s := range finalStates {
		fs[s] = true
	}
	return &StateMachineDefinition{
		name:         name,
		initialState: initial,
		finalStates:  fs,
		transitions:  make(map[transitionKey]transition),
	}
}

// AddTransition registers (from, trigger) -> to[, action]. Registering the
// same (state, trigger) pair twice is a programmer error and panics
// immediately, per spec.md section 4.A ("Duplicate (state, trigger)
// registration is a programmer error").
func (d *StateMachineDefinition) AddTransition(from machineState, t trigger, to machineState, action func(m machineInstance)) *StateMachineDefinition {
	key := transitionKey{state: from, trigger: t}
	if _, exists := d.transitions[key]; exists {
		panic(fmt.Sprintf("%v: duplicate transition registered for state=%v trigger=%v", d.name, from, t))
	}
	d.transitions[key] = transition{to: to, action: action}
	return d
}

// apply looks up the transition for (current, t). ok is false if no such
// transition is registered, which callers treat as an illegal state
// transition (determinism violation or programmer error, depending on
// whether t came from history or from code).
func (d *StateMachineDefinition) apply(current machineState, t trigger) (next machineState, action func(m machineInstance), ok bool) {
	tr, found := d.transitions[transitionKey{state: current, trigger: t}]
	if !found {
		return "", nil, false
	}
	return tr.to, tr.action, true
}

func (d *StateMachineDefinition) isFinal(s machineState) bool {
	return d.finalStates[s]
}
