// Copyright (c) 2017 Uber Technologies, Inc.
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

// Package metrics carries the ambient observability concerns
// (spec.md/SPEC_FULL.md section 4.G) this engine's coordinator needs:
// counters/timers/gauges that go quiet during replay, so a workflow
// execution that gets replayed a thousand times doesn't emit a thousand
// copies of every metric it ever recorded.
package metrics

import "github.com/uber-go/tally"

// ReplayAwareScope wraps a tally.Scope so every metric recorded through
// it is silently dropped while the owning WorkflowStateMachines reports
// IsReplaying() == true. Reported metrics would otherwise double-count
// every replayed workflow task on top of the one that actually ran it.
type ReplayAwareScope struct {
	scope       tally.Scope
	isReplaying func() bool
}

// WrapScope builds a ReplayAwareScope delegating to scope, with
// isReplaying consulted on every metric emission. A nil scope falls back
// to tally.NoopScope so callers never need a nil check of their own.
func WrapScope(scope tally.Scope, isReplaying func() bool) *ReplayAwareScope {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &ReplayAwareScope{scope: scope, isReplaying: isReplaying}
}

func (s *ReplayAwareScope) active() tally.Scope {
	if s.isReplaying() {
		return tally.NoopScope
	}
	return s.scope
}

// Counter returns a counter that emits only outside replay.
func (s *ReplayAwareScope) Counter(name string) tally.Counter {
	return s.active().Counter(name)
}

// Gauge returns a gauge that emits only outside replay.
func (s *ReplayAwareScope) Gauge(name string) tally.Gauge {
	return s.active().Gauge(name)
}

// Timer returns a timer that emits only outside replay.
func (s *ReplayAwareScope) Timer(name string) tally.Timer {
	return s.active().Timer(name)
}

// Histogram returns a histogram that emits only outside replay.
func (s *ReplayAwareScope) Histogram(name string, buckets tally.Buckets) tally.Histogram {
	return s.active().Histogram(name, buckets)
}

// Tagged returns a new ReplayAwareScope carrying the additional tags,
// still governed by the same isReplaying check.
func (s *ReplayAwareScope) Tagged(tags map[string]string) tally.Scope {
	return &ReplayAwareScope{scope: s.scope.Tagged(tags), isReplaying: s.isReplaying}
}

// SubScope returns a child ReplayAwareScope, still governed by the same
// isReplaying check.
func (s *ReplayAwareScope) SubScope(name string) tally.Scope {
	return &ReplayAwareScope{scope: s.scope.SubScope(name), isReplaying: s.isReplaying}
}

// Capabilities reports the wrapped scope's reporting capabilities
// unconditionally; capability queries aren't metric emission and always
// reflect the real backing scope, replaying or not.
func (s *ReplayAwareScope) Capabilities() tally.Capabilities {
	return s.scope.Capabilities()
}
