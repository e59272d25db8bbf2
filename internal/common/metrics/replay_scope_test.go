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

package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
)

func TestReplayAwareScopeSuppressesEmissionWhileReplaying(t *testing.T) {
	backing, closer := tally.NewRootScope(tally.ScopeOptions{Reporter: tally.NullStatsReporter}, 0)
	defer closer.Close()

	replaying := true
	scope := WrapScope(backing, func() bool { return replaying })

	scope.Counter("decisions").Inc(1)
	snapshot := backing.Snapshot()
	_, ok := snapshot.Counters()["decisions+"]
	require.False(t, ok, "counter should not be registered against the backing scope while replaying")

	replaying = false
	scope.Counter("decisions").Inc(1)
	snapshot = backing.Snapshot()
	counter, ok := snapshot.Counters()["decisions+"]
	require.True(t, ok, "counter should be registered against the backing scope once replay ends")
	require.Equal(t, int64(1), counter.Value())
}

func TestReplayAwareScopeNilFallsBackToNoop(t *testing.T) {
	scope := WrapScope(nil, func() bool { return false })
	require.NotPanics(t, func() { scope.Counter("x").Inc(1) })
}

func TestReplayAwareScopeTaggedAndSubScopePreserveReplayCheck(t *testing.T) {
	backing, closer := tally.NewRootScope(tally.ScopeOptions{Reporter: tally.NullStatsReporter}, 0)
	defer closer.Close()

	replaying := true
	scope := WrapScope(backing, func() bool { return replaying })

	tagged := scope.Tagged(map[string]string{"workflow": "test"})
	sub := scope.SubScope("child")

	tagged.Counter("c").Inc(1)
	sub.Counter("c").Inc(1)

	snapshot := backing.Snapshot()
	require.Empty(t, snapshot.Counters())
}
