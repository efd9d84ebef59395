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

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection, no final xor.
// The loader accumulates one update per transferred 32-bit word per buffer,
// bytes taken MSB first.

const (
	Crc16Poly = 0x1021
	Crc16Init = 0xFFFF
)

var crc16Table [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ Crc16Poly
			} else {
				crc <<= 1
			}
		}
		crc16Table[i] = crc
	}
}

func crc16Byte(crc uint16, b byte) uint16 {
	return crc<<8 ^ crc16Table[byte(crc>>8)^b]
}

// Crc16Word folds one 32-bit word into a running checksum, MSB first
func Crc16Word(crc uint16, word uint32) uint16 {
	crc = crc16Byte(crc, byte(word>>24))
	crc = crc16Byte(crc, byte(word>>16))
	crc = crc16Byte(crc, byte(word>>8))
	crc = crc16Byte(crc, byte(word))
	return crc
}

// Crc16Words computes the checksum of a word sequence from the initial value.
// The client side uses this to precompute the expected checksum words.
func Crc16Words(words []uint32) uint16 {
	crc := uint16(Crc16Init)
	for _, w := range words {
		crc = Crc16Word(crc, w)
	}
	return crc
}
