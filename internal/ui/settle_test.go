/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettlerWritesOnceAfterQuiet(t *testing.T) {
	var writes atomic.Int32
	s := newSettler(30*time.Millisecond, nil, func() { writes.Add(1) })
	for i := 0; i < 10; i++ {
		s.Touch()
	}
	assert.True(t, s.Pending())
	assert.Eventually(t, func() bool { return writes.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, writes.Load())
}

func TestSettlerFlush(t *testing.T) {
	var writes atomic.Int32
	s := newSettler(time.Hour, nil, func() { writes.Add(1) })
	s.Flush()
	assert.EqualValues(t, 0, writes.Load(), "nothing pending")

	s.Touch()
	s.Flush()
	assert.EqualValues(t, 1, writes.Load())
	assert.False(t, s.Pending())
}
