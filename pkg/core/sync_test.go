/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleAll(e *EdgeStretch, input []bool) []bool {
	out := make([]bool, len(input))
	for i, v := range input {
		out[i] = e.Sample(v)
	}
	return out
}

func TestEdgeStretchSingleTickBlip(t *testing.T) {
	e := &EdgeStretch{}
	got := sampleAll(e, []bool{true, false, false, false, false, false})
	require.Equal(t, []bool{true, true, true, true, false, false}, got)
}

func TestEdgeStretchHeldLevelDoesNotRetrigger(t *testing.T) {
	e := &EdgeStretch{}
	got := sampleAll(e, []bool{true, true, true, true, true, true, true})
	require.Equal(t, []bool{true, true, true, true, false, false, false}, got)
}

func TestEdgeStretchRetriggersAfterFall(t *testing.T) {
	e := &EdgeStretch{}
	got := sampleAll(e, []bool{true, false, false, false, false, true})
	require.Equal(t, []bool{true, true, true, true, false, true}, got)
}

func TestEdgeStretchJitteredRiseStillMinimumWidth(t *testing.T) {
	// a rise landing mid-pulse restarts the countdown, the pulse never
	// ends up shorter than StretchTicks
	e := &EdgeStretch{}
	got := sampleAll(e, []bool{true, false, true, false, false, false, false, false})
	require.Equal(t, []bool{true, true, true, true, true, true, false, false}, got)
}

func TestEdgeStretchReset(t *testing.T) {
	e := &EdgeStretch{}
	e.Sample(true)
	e.Reset()
	require.False(t, e.Sample(false))
	// held level across the reset looks like a fresh rise
	require.True(t, e.Sample(true))
}

func TestFallingEdge(t *testing.T) {
	e := &FallingEdge{}
	require.False(t, e.Sample(true))
	require.False(t, e.Sample(true))
	require.True(t, e.Sample(false))
	require.False(t, e.Sample(false))
	require.False(t, e.Sample(true))
}
