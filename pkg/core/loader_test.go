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

	"github.com/sealablab/go-dpd/pkg/regs"
)

// grantLoader walks the dispatcher into loader focus with bufCount active
// buffers and leaves the loader in Transfer
func (s *sim) grantLoader(t *testing.T, bufCount int) {
	t.Helper()
	s.cmd(gate())
	s.tick(1)
	g := gate()
	g.LoaderBufCount = bufCount
	sel := g
	sel.SelectLoader = true
	s.cmd(sel)
	s.tick(1)
	require.Equal(t, FocusLoader, s.c.Focus())
	s.cmd(g)
	s.tick(1)
	require.Equal(t, LoadTransfer, s.c.Loader().State())
}

// strobeWord performs one client-side transfer step: place the word, raise
// the strobe, drop it
func (s *sim) strobeWord(bufCount int, word uint32) {
	g := gate()
	g.LoaderBufCount = bufCount
	s.bank[regs.WordLoadData] = word
	up := g
	up.LoaderStrobe = true
	s.cmd(up)
	s.tick(1)
	s.cmd(g)
	s.tick(1)
}

func TestLoaderTransfersAndValidates(t *testing.T) {
	words := []uint32{0xdeadbeef, 0x00c0ffee, 0x12345678, 0x0badf00d}
	crc := Crc16Words(words)

	s := newSim()
	s.bank[regs.WordLoadCount] = uint32(len(words))
	s.bank[regs.WordCrcExpect10] = regs.CrcPair{Lo: crc, Hi: crc}.Encode()
	s.grantLoader(t, 2)

	for _, w := range words {
		s.strobeWord(2, w)
	}
	require.Equal(t, LoadValidate, s.c.Loader().State())

	g := gate()
	g.LoaderBufCount = 2
	s.cmd(g)
	s.tick(1)
	require.Equal(t, LoadDone, s.c.Loader().State())
	require.Equal(t, int32((BandLoader+int(LoadDone))*UnitsPerState), s.out.Diag)

	// both active buffers received every word, the third stayed clean
	for i, w := range words {
		require.Equal(t, w, s.c.Buffers().Read(0, i))
		require.Equal(t, w, s.c.Buffers().Read(1, i))
	}
	require.Equal(t, uint32(0), s.c.Buffers().Read(2, 0))

	ret := g
	ret.Return = true
	s.cmd(ret)
	s.tick(1)
	require.Equal(t, FocusDispatcher, s.c.Focus())
	require.Equal(t, DispReady, s.c.Dispatcher().State())
}

func TestLoaderFaultsOnChecksumMismatch(t *testing.T) {
	words := []uint32{0x11111111, 0x22222222, 0x33333333, 0x44444444}
	crc := Crc16Words(words)

	s := newSim()
	s.bank[regs.WordLoadCount] = uint32(len(words))
	s.bank[regs.WordCrcExpect10] = regs.CrcPair{Lo: crc, Hi: crc}.Encode()
	s.grantLoader(t, 1)

	// single-bit corruption in one transferred word
	for i, w := range words {
		if i == 2 {
			w ^= 0x00010000
		}
		s.strobeWord(1, w)
	}
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, LoadFault, s.c.Loader().State())
	require.Equal(t, int32(-((BandLoader+int(LoadFault))*UnitsPerState+int(StatusFault))), s.out.Diag)
}

func TestLoaderIgnoresReturnUntilParked(t *testing.T) {
	s := newSim()
	s.bank[regs.WordLoadCount] = 4
	s.grantLoader(t, 1)

	ret := gate()
	ret.Return = true
	s.cmd(ret)
	s.tick(3)
	require.Equal(t, FocusLoader, s.c.Focus())
	require.Equal(t, LoadTransfer, s.c.Loader().State())
}

func TestLoaderFaultReturnsFocus(t *testing.T) {
	words := []uint32{0xaa, 0xbb}
	s := newSim()
	s.bank[regs.WordLoadCount] = uint32(len(words))
	s.bank[regs.WordCrcExpect10] = regs.CrcPair{Lo: Crc16Words(words) ^ 1}.Encode()
	s.grantLoader(t, 1)
	for _, w := range words {
		s.strobeWord(1, w)
	}
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, LoadFault, s.c.Loader().State())

	// a faulted transfer still hands focus back on return
	ret := gate()
	ret.Return = true
	s.cmd(ret)
	s.tick(1)
	require.Equal(t, FocusDispatcher, s.c.Focus())
}

func TestLoaderRegrantStartsFresh(t *testing.T) {
	words := []uint32{0xaa, 0xbb}
	crc := Crc16Words(words)
	s := newSim()
	s.bank[regs.WordLoadCount] = uint32(len(words))
	s.bank[regs.WordCrcExpect10] = regs.CrcPair{Lo: crc ^ 1}.Encode()
	s.grantLoader(t, 1)
	for _, w := range words {
		s.strobeWord(1, w)
	}
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, LoadFault, s.c.Loader().State())

	ret := gate()
	ret.Return = true
	s.cmd(ret)
	s.tick(1)

	// fix the expectation and run a second cycle on the same core
	s.bank[regs.WordCrcExpect10] = regs.CrcPair{Lo: crc}.Encode()
	sel := gate()
	sel.SelectLoader = true
	s.cmd(sel)
	s.tick(1)
	s.cmd(gate())
	s.tick(1)
	for _, w := range words {
		s.strobeWord(1, w)
	}
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, LoadDone, s.c.Loader().State())
}

func TestLoaderSetupClampsWordCount(t *testing.T) {
	l := NewLoader()
	var bank regs.Bank
	bank[regs.WordLoadCount] = 0
	l.step(regs.Command{LoaderBufCount: 1}, &bank, false, &BufferBank{})
	require.Equal(t, BufferWords, l.wordCount)

	l.reset()
	bank[regs.WordLoadCount] = BufferWords + 1
	l.step(regs.Command{LoaderBufCount: 1}, &bank, false, &BufferBank{})
	require.Equal(t, BufferWords, l.wordCount)
}
