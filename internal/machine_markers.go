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

// SideEffectMachine, MutableSideEffectMachine, VersionMachine and
// LocalActivityMachine are all marker-recording machines (spec.md section
// 4.B): they record a MarkerRecorded event on their very first transition
// and resolve their completion callback from the marker's own Details,
// with no round trip through the transport required after creation. Each
// gets its own (tiny, two-state) definition since the marker name and
// payload shape differ.

const (
	markerStateCreated machineState = "CREATED"
	markerStateRecorded machineState = "RECORDED"
)

var sideEffectMachineDefinition *StateMachineDefinition
var sideEffectMachineDefinitionOnce sync.Once

func getSideEffectMachineDefinition() *StateMachineDefinition {
	sideEffectMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("SideEffect", markerStateCreated, markerStateRecorded)
		d.AddTransition(markerStateCreated, EventTypeMarkerRecorded, markerStateRecorded, func(m machineInstance) {
			m.(*SideEffectMachine).invokeCompletion()
		})
		sideEffectMachineDefinition = d
	})
	return sideEffectMachineDefinition
}

// SideEffectMachine captures the one-shot, id-scoped result of a
// SideEffect call (spec.md section 4.B). On first execution it stashes
// the caller's already-computed value and emits a RecordMarker command;
// on replay it instead surfaces the value recorded in history, so the
// side effect function itself never runs again.
type SideEffectMachine struct {
	*machineBase
	sideEffectID    int32
	recordedDetails map[string][]byte

	completionOnce sync.Once
	completion     func(details map[string][]byte)
}

func NewSideEffectMachine(
	sideEffectID int32,
	details map[string][]byte,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(details map[string][]byte),
) *SideEffectMachine {
	base := newMachineBase(machineID{kind: entityKindSideEffect, id: intToDecimal(int(sideEffectID))}, getSideEffectMachineDefinition(), commandSink, observer)
	s := &SideEffectMachine{machineBase: base, sideEffectID: sideEffectID, completion: completion}
	s.setSelf(s)
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeRecordMarker,
		Attributes: RecordMarkerCommandAttributes{MarkerName: string(MarkerNameSideEffect), Details: details},
	}, owner: s})
	return s
}

func (s *SideEffectMachine) commandToEmit() *Command { return nil }
func (s *SideEffectMachine) handleCommandSent()      {}
func (s *SideEffectMachine) cancel()                 {} // side effects cannot be cancelled

func (s *SideEffectMachine) handleMarkerRecorded(details map[string][]byte) {
	s.recordedDetails = details
	s.fire(EventTypeMarkerRecorded)
}

func (s *SideEffectMachine) invokeCompletion() {
	s.completionOnce.Do(func() {
		if s.completion != nil {
			s.completion(s.recordedDetails)
		}
	})
}

var mutableSideEffectMachineDefinition *StateMachineDefinition
var mutableSideEffectMachineDefinitionOnce sync.Once

func getMutableSideEffectMachineDefinition() *StateMachineDefinition {
	mutableSideEffectMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("MutableSideEffect", markerStateCreated, markerStateRecorded)
		d.AddTransition(markerStateCreated, EventTypeMarkerRecorded, markerStateRecorded, func(m machineInstance) {
			m.(*MutableSideEffectMachine).invokeCompletion()
		})
		// A MutableSideEffect may be re-invoked on every workflow task: once
		// recorded it can transition back to itself when the value changes
		// and a fresh marker is emitted (spec.md section 4.B "mutable"
		// qualifier distinguishing it from plain SideEffect).
		d.AddTransition(markerStateRecorded, EventTypeMarkerRecorded, markerStateRecorded, func(m machineInstance) {
			m.(*MutableSideEffectMachine).invokeCompletion()
		})
		mutableSideEffectMachineDefinition = d
	})
	return mutableSideEffectMachineDefinition
}

// MutableSideEffectMachine is like SideEffectMachine but lives for the
// whole execution under its id (spec.md section 4.B): recordIfChanged
// only emits a fresh marker when the caller's value differs from the last
// one recorded, so repeated calls with an unchanged value never touch the
// commands queue.
type MutableSideEffectMachine struct {
	*machineBase
	mutableSideEffectID string
	recordedDetails     map[string][]byte
	recorded            bool

	completions []func(details map[string][]byte)
}

// NewMutableSideEffectMachine constructs the machine without recording
// anything; callers drive it via recordIfChanged once the candidate value
// is known.
func NewMutableSideEffectMachine(
	mutableSideEffectID string,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
) *MutableSideEffectMachine {
	base := newMachineBase(machineID{kind: entityKindMutableSideEffect, id: mutableSideEffectID}, getMutableSideEffectMachineDefinition(), commandSink, observer)
	m := &MutableSideEffectMachine{machineBase: base, mutableSideEffectID: mutableSideEffectID}
	m.setSelf(m)
	return m
}

func (m *MutableSideEffectMachine) commandToEmit() *Command { return nil }
func (m *MutableSideEffectMachine) handleCommandSent()      {}
func (m *MutableSideEffectMachine) cancel()                 {}

// recordIfChanged emits a RecordMarker command carrying details, unless
// details equals the last value this id ever recorded, in which case it
// does nothing and reports false (spec.md section 4.B "a new marker is
// only emitted if new differs from the last recorded value").
func (m *MutableSideEffectMachine) recordIfChanged(details map[string][]byte) bool {
	if m.recorded && detailsEqual(details, m.recordedDetails) {
		return false
	}
	m.commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeRecordMarker,
		Attributes: RecordMarkerCommandAttributes{MarkerName: string(MarkerNameMutableSideEffect), Details: details},
	}, owner: m})
	return true
}

// addCompletion registers completion to run the next time a marker is
// recorded for this id. Unlike VersionMachine.addCompletion this never
// resolves from cache immediately: callers only reach this method right
// before driving a fresh recordIfChanged, so the value in flight is never
// the one already cached (an unchanged value is resolved by the caller
// directly, without touching the machine at all).
func (m *MutableSideEffectMachine) addCompletion(completion func(details map[string][]byte)) {
	m.completions = append(m.completions, completion)
}

func (m *MutableSideEffectMachine) handleMarkerRecorded(details map[string][]byte) {
	m.recordedDetails = details
	m.recorded = true
	m.fire(EventTypeMarkerRecorded)
}

func (m *MutableSideEffectMachine) invokeCompletion() {
	completions := m.completions
	m.completions = nil
	for _, c := range completions {
		c(m.recordedDetails)
	}
}

// detailsEqual compares two marker payloads field by field; used to decide
// whether a MutableSideEffect value actually changed.
func detailsEqual(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || len(v) != len(other) {
			return false
		}
		for i := range v {
			if v[i] != other[i] {
				return false
			}
		}
	}
	return true
}

var versionMachineDefinition *StateMachineDefinition
var versionMachineDefinitionOnce sync.Once

func getVersionMachineDefinition() *StateMachineDefinition {
	versionMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("Version", markerStateCreated, markerStateRecorded)
		d.AddTransition(markerStateCreated, EventTypeMarkerRecorded, markerStateRecorded, func(m machineInstance) {
			m.(*VersionMachine).invokeCompletion()
		})
		versionMachineDefinition = d
	})
	return versionMachineDefinition
}

// VersionMachine backs GetVersion (spec.md section 4.B): it records the
// chosen version number as a marker on first execution of a changed code
// path, and on replay returns whatever version the history already
// committed to, regardless of what the current code would have chosen.
// Unlike MutableSideEffect it never re-records: one changeID records
// exactly once for the lifetime of the execution, and every later
// GetVersion call for that changeID reuses the cached value.
type VersionMachine struct {
	*machineBase
	changeID        string
	recordedVersion int
	recorded        bool

	completions []func(version int)
}

// NewVersionMachine constructs the machine and immediately records version
// as a marker; callers that already hold a machine for this changeID
// should reuse it instead of constructing a second one (spec.md section
// 4.B "subsequent calls return the recorded value").
func NewVersionMachine(
	changeID string,
	version int,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(version int),
) *VersionMachine {
	base := newMachineBase(machineID{kind: entityKindVersion, id: changeID}, getVersionMachineDefinition(), commandSink, observer)
	v := &VersionMachine{machineBase: base, changeID: changeID}
	v.setSelf(v)
	if completion != nil {
		v.completions = append(v.completions, completion)
	}
	details := map[string][]byte{"version": encodeIntDetail(version)}
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeRecordMarker,
		Attributes: RecordMarkerCommandAttributes{MarkerName: string(MarkerNameVersion), Details: details},
	}, owner: v})
	return v
}

func (v *VersionMachine) commandToEmit() *Command { return nil }
func (v *VersionMachine) handleCommandSent()      {}
func (v *VersionMachine) cancel()                 {}

// addCompletion registers completion to run once this changeID's version
// is recorded; if it already is, completion runs immediately.
func (v *VersionMachine) addCompletion(completion func(version int)) {
	if v.recorded {
		completion(v.recordedVersion)
		return
	}
	v.completions = append(v.completions, completion)
}

func (v *VersionMachine) handleMarkerRecorded(version int) {
	v.recordedVersion = version
	v.recorded = true
	v.fire(EventTypeMarkerRecorded)
}

func (v *VersionMachine) invokeCompletion() {
	completions := v.completions
	v.completions = nil
	for _, c := range completions {
		c(v.recordedVersion)
	}
}

var localActivityMachineDefinition *StateMachineDefinition
var localActivityMachineDefinitionOnce sync.Once

func getLocalActivityMachineDefinition() *StateMachineDefinition {
	localActivityMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("LocalActivity", markerStateCreated, markerStateRecorded)
		d.AddTransition(markerStateCreated, EventTypeMarkerRecorded, markerStateRecorded, func(m machineInstance) {
			m.(*LocalActivityMachine).invokeCompletion()
		})
		localActivityMachineDefinition = d
	})
	return localActivityMachineDefinition
}

// LocalActivityMachine runs its activity function inline (no scheduling
// round trip) and records the outcome as a marker so replay can recover
// the result without re-executing the function (spec.md section 4.B).
type LocalActivityMachine struct {
	*machineBase
	activityID     string
	recordedResult []byte
	recordedErr    error

	completionOnce sync.Once
	completion     func(result []byte, err error)
}

func NewLocalActivityMachine(
	activityID string,
	result []byte,
	localActivityErr error,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(result []byte, err error),
) *LocalActivityMachine {
	base := newMachineBase(machineID{kind: entityKindLocalActivity, id: activityID}, getLocalActivityMachineDefinition(), commandSink, observer)
	la := &LocalActivityMachine{machineBase: base, activityID: activityID, completion: completion}
	la.setSelf(la)
	details := map[string][]byte{"result": result}
	if localActivityErr != nil {
		details["error"] = []byte(localActivityErr.Error())
	}
	commandSink(&CancellableCommand{Command: &Command{
		Type:       CommandTypeRecordMarker,
		Attributes: RecordMarkerCommandAttributes{MarkerName: string(MarkerNameLocalActivity), Details: details},
	}, owner: la})
	return la
}

func (la *LocalActivityMachine) commandToEmit() *Command { return nil }
func (la *LocalActivityMachine) handleCommandSent()      {}
func (la *LocalActivityMachine) cancel()                 {}

func (la *LocalActivityMachine) handleMarkerRecorded(result []byte, err error) {
	la.recordedResult = result
	la.recordedErr = err
	la.fire(EventTypeMarkerRecorded)
}

func (la *LocalActivityMachine) invokeCompletion() {
	la.completionOnce.Do(func() {
		if la.completion != nil {
			la.completion(la.recordedResult, la.recordedErr)
		}
	})
}

// encodeIntDetail matches the teacher's convention of storing scalar
// marker payloads as their decimal string encoding, avoiding a dependency
// on the payload codec for this internal bookkeeping value.
func encodeIntDetail(v int) []byte {
	return []byte(intToDecimal(v))
}

func intToDecimal(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
