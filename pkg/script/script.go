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

// Package script runs Starlark scenarios against an in-process core. The
// scenario owns the clock: ticks only advance when the script asks, which
// makes protocol sequences reproducible in a way the live server is not.
package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/log"
	"github.com/sealablab/go-dpd/pkg/regs"
)

// Harness binds one core instance and its word bank to a Starlark thread
type Harness struct {
	machine  *core.Core
	bank     regs.Bank
	feedback int16
	out      core.Outputs
}

func NewHarness() *Harness {
	return &Harness{machine: core.New()}
}

func (h *Harness) Machine() *core.Core { return h.machine }

func (h *Harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.out = h.machine.Tick(core.Inputs{Words: h.bank, Feedback: h.feedback})
	}
}

// Predeclared returns the builtins visible to scenarios
func (h *Harness) Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"write":     starlark.NewBuiltin("write", h.builtinWrite),
		"tick":      starlark.NewBuiltin("tick", h.builtinTick),
		"diag":      starlark.NewBuiltin("diag", h.builtinDiag),
		"outputs":   starlark.NewBuiltin("outputs", h.builtinOutputs),
		"state":     starlark.NewBuiltin("state", h.builtinState),
		"focus":     starlark.NewBuiltin("focus", h.builtinFocus),
		"feedback":  starlark.NewBuiltin("feedback", h.builtinFeedback),
		"crc16":     starlark.NewBuiltin("crc16", h.builtinCrc16),
		"assert_eq": starlark.NewBuiltin("assert_eq", h.builtinAssertEq),
	}
}

// Run executes one scenario file
func (h *Harness) Run(filename string, src interface{}) error {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Info("scenario: %s", msg)
		},
	}
	_, err := starlark.ExecFile(thread, filename, src, h.Predeclared())
	return err
}

func (h *Harness) builtinWrite(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var index, value int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "index", &index, "value", &value); err != nil {
		return nil, err
	}
	if index < 0 || index >= regs.NumWords {
		return nil, fmt.Errorf("write: index out of range: %d", index)
	}
	h.bank[index] = uint32(value)
	return starlark.None, nil
}

func (h *Harness) builtinTick(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("tick: negative count: %d", n)
	}
	h.tick(n)
	return starlark.MakeInt64(int64(h.out.Diag)), nil
}

func (h *Harness) builtinDiag(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return starlark.MakeInt64(int64(h.out.Diag)), nil
}

func (h *Harness) builtinOutputs(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return starlark.Tuple{
		starlark.MakeInt64(int64(h.out.Diag)),
		starlark.MakeInt64(int64(h.out.Trigger)),
		starlark.MakeInt64(int64(h.out.Intensity)),
	}, nil
}

func (h *Harness) builtinState(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	snap := h.machine.Snapshot()
	switch h.machine.Focus() {
	case core.FocusLoader:
		return starlark.String(snap.Loader.State), nil
	case core.FocusProgram:
		return starlark.String(snap.App.State), nil
	case core.FocusDiag:
		return starlark.String(snap.Diag.State), nil
	}
	return starlark.String(snap.Dispatcher.State), nil
}

func (h *Harness) builtinFocus(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return starlark.String(h.machine.Focus().String()), nil
}

func (h *Harness) builtinFeedback(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value); err != nil {
		return nil, err
	}
	h.feedback = int16(value)
	return starlark.None, nil
}

func (h *Harness) builtinCrc16(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var list *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "words", &list); err != nil {
		return nil, err
	}
	words := make([]uint32, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		v, ok := list.Index(i).(starlark.Int)
		if !ok {
			return nil, fmt.Errorf("crc16: words must be ints")
		}
		u, ok := v.Uint64()
		if !ok {
			return nil, fmt.Errorf("crc16: word out of range")
		}
		words = append(words, uint32(u))
	}
	return starlark.MakeInt64(int64(core.Crc16Words(words))), nil
}

func (h *Harness) builtinAssertEq(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var got, want starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "got", &got, "want", &want); err != nil {
		return nil, err
	}
	eq, err := starlark.Equal(got, want)
	if err != nil {
		return nil, err
	}
	if !eq {
		return nil, fmt.Errorf("assert_eq: got %s, want %s", got.String(), want.String())
	}
	return starlark.None, nil
}
