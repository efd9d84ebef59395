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

func TestEncodeDiagBandsAreDisjoint(t *testing.T) {
	cases := []struct {
		focus Focus
		state int
		want  int32
	}{
		{FocusDispatcher, int(DispDisabled), 0},
		{FocusDispatcher, int(DispReady), 1 * UnitsPerState},
		{FocusDiag, int(DiagActive), 9 * UnitsPerState},
		{FocusLoader, int(LoadTransfer), 17 * UnitsPerState},
		{FocusProgram, int(AppIdle), 25 * UnitsPerState},
		{FocusProgram, int(AppCooldown), 28 * UnitsPerState},
	}
	for _, c := range cases {
		got := EncodeDiag(c.focus, FSMView{State: c.state})
		require.Equal(t, c.want, got, "focus %s state %d", c.focus, c.state)
	}
}

func TestEncodeDiagStatusInLowUnits(t *testing.T) {
	v := EncodeDiag(FocusProgram, FSMView{
		State:  int(AppCooldown),
		Status: StatusFiringComplete | StatusCooldownComplete,
	})
	require.Equal(t, int32(28*UnitsPerState+12), v)
}

func TestEncodeDiagFaultNegatesMagnitude(t *testing.T) {
	v := EncodeDiag(FocusLoader, FSMView{
		State:  int(LoadFault),
		Status: StatusFault,
	})
	require.Equal(t, int32(-(20*UnitsPerState + 128)), v)
}

func TestDecodeDiagInvertsEncode(t *testing.T) {
	for _, focus := range []Focus{FocusDispatcher, FocusDiag, FocusLoader, FocusProgram} {
		for state := 0; state < 6; state++ {
			for _, status := range []uint8{0, StatusTimeout, StatusFault, StatusFault | StatusTimeout, 0xff} {
				v := EncodeDiag(focus, FSMView{State: state, Status: status})
				index, gotStatus, fault := DecodeDiag(v)
				require.Equal(t, bandBase(focus)+state, index)
				require.Equal(t, status, gotStatus)
				require.Equal(t, status&StatusFault != 0, fault)
			}
		}
	}
}
