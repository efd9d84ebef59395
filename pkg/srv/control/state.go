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

package control

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/log"
	"github.com/sealablab/go-dpd/pkg/regs"
)

const (
	BucketNamePrefix = "words_"
)

// RegState journals externally written control words so configuration
// survives a restart
type RegState struct {
	context.Context
	DB         *bbolt.DB
	instrument string
}

func NewRegState(ctx context.Context, cfg *config.Config) (*RegState, error) {
	db, err := bbolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err = tx.CreateBucketIfNotExists([]byte(bucketName(cfg.Instrument)))
		return err
	}); err != nil {
		return nil, err
	}
	return &RegState{
		Context:    ctx,
		DB:         db,
		instrument: cfg.Instrument,
	}, nil
}

func uint16ToByte(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func bucketName(instrument string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, instrument)
}

func (s *RegState) Close() {
	s.DB.Close()
}

// SetWord journals one control word write
func (s *RegState) SetWord(index uint16, value uint32) error {
	log.Debug("Journaling word: index: %d value: %x", index, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(s.instrument)))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucketName(s.instrument))
		}
		return b.Put(uint16ToByte(index), uint32ToByte(value))
	})
}

// GetWord returns one journaled control word
func (s *RegState) GetWord(index uint16) (uint32, error) {
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(s.instrument)))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucketName(s.instrument))
		}
		valueBytes := b.Get(uint16ToByte(index))
		if valueBytes == nil {
			return fmt.Errorf("Key not found: %d", index)
		}
		value = binary.BigEndian.Uint32(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// Restore fills the bank from the journal. Word 0 is never restored: a
// journaled run gate must not revive the machine on boot.
func (s *RegState) Restore(bank *regs.Bank) error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(s.instrument)))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucketName(s.instrument))
		}
		for i := 1; i < regs.NumWords; i++ {
			valueBytes := b.Get(uint16ToByte(uint16(i)))
			if valueBytes == nil {
				continue
			}
			bank[i] = binary.BigEndian.Uint32(valueBytes)
		}
		return nil
	})
}
