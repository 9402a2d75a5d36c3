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
	"sync"
	"time"
)

// settler holds back a write until edits have been quiet for a while. The
// timer hands the write to schedule, which lets a skin run it on its own
// goroutine; Flush runs a pending write on the caller's goroutine.
type settler struct {
	quiet    time.Duration
	schedule func(func())
	write    func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

func newSettler(quiet time.Duration, schedule func(func()), write func()) *settler {
	if schedule == nil {
		schedule = func(f func()) { f() }
	}
	return &settler{quiet: quiet, schedule: schedule, write: write}
}

// Touch records an edit and restarts the quiet period.
func (s *settler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, func() { s.schedule(s.fire) })
}

// Pending reports whether an edit has not been written yet.
func (s *settler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Flush writes a pending edit now.
func (s *settler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.fire()
}

func (s *settler) fire() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()
	s.write()
}
