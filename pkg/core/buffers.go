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

const (
	// NumBuffers is the number of shared buffers owned by the dispatcher
	NumBuffers = 4
	// BufferWords is the size of each buffer in 32-bit words
	BufferWords = 1024
)

// BufferBank is the shared buffer memory. The dispatcher owns it, the
// loader writes it while focused, everyone else only reads.
type BufferBank struct {
	buf [NumBuffers][BufferWords]uint32
}

func (b *BufferBank) Write(buffer, offset int, word uint32) {
	b.buf[buffer][offset] = word
}

func (b *BufferBank) Read(buffer, offset int) uint32 {
	return b.buf[buffer][offset]
}

// Words returns a copy of one buffer's contents
func (b *BufferBank) Words(buffer int) []uint32 {
	out := make([]uint32, BufferWords)
	copy(out, b.buf[buffer][:])
	return out
}

// Zero clears all buffers, done on a full reset
func (b *BufferBank) Zero() {
	for i := range b.buf {
		for j := range b.buf[i] {
			b.buf[i][j] = 0
		}
	}
}
