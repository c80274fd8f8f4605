// Copyright 2016 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package oracle

import (
	"sync"

	"github.com/coocood/badger"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pingcap-incubator/tinytso/util/codec"
	"github.com/pingcap-incubator/tinytso/util/engine"
)

// DefaultTimestampBatch is how many timestamps are reserved per ceiling
// write. Bigger batches mean fewer storage writes; the cost is a gap of up
// to one batch after a restart.
const DefaultTimestampBatch = 10 * 1000 * 1000

var maxTimestampKey = []byte("m_max_timestamp")

// Oracle hands out strictly increasing transaction timestamps starting at 1.
// Before handing out a timestamp it must be covered by the persisted
// ceiling, so a crash can never reissue a timestamp: on restart allocation
// resumes from the last persisted ceiling.
type Oracle struct {
	mu           sync.Mutex
	last         uint64
	maxAllocated uint64
	batch        uint64
	db           *badger.DB
}

// NewOracle loads the persisted ceiling from db and reserves the first
// batch. batch == 0 selects DefaultTimestampBatch.
func NewOracle(db *badger.DB, batch uint64) (*Oracle, error) {
	if batch == 0 {
		batch = DefaultTimestampBatch
	}
	o := &Oracle{batch: batch, db: db}

	val, err := engine.Get(db, maxTimestampKey)
	if err != nil && err != badger.ErrKeyNotFound {
		return nil, errors.WithStack(err)
	}
	if err == nil {
		if o.last, err = codec.DecodeUint64(val); err != nil {
			return nil, err
		}
	}
	if err := o.extendCeiling(); err != nil {
		return nil, err
	}
	log.Info("timestamp oracle initialized",
		zap.Uint64("last", o.last), zap.Uint64("ceiling", o.maxAllocated))
	return o, nil
}

// extendCeiling persists last+batch as the new ceiling. Callers must hold
// o.mu except during construction.
func (o *Oracle) extendCeiling() error {
	ceiling := o.last + o.batch
	if err := engine.Put(o.db, maxTimestampKey, codec.EncodeUint64(ceiling)); err != nil {
		return errors.WithStack(err)
	}
	o.maxAllocated = ceiling
	ceilingGauge.Set(float64(ceiling))
	return nil
}

// Next returns the next timestamp. It only touches storage when the current
// batch is exhausted.
func (o *Oracle) Next() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := o.last + 1
	if next > o.maxAllocated {
		if err := o.extendCeiling(); err != nil {
			return 0, err
		}
	}
	o.last = next
	allocatedCounter.Inc()
	return next, nil
}

// Last returns the most recently allocated timestamp, or 0 if none has been
// allocated since the process started.
func (o *Oracle) Last() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
