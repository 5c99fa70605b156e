// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package blocksync finds and holds 66 bit block alignment on a
// received 10GBASE-R stream using only the 2 bit sync headers.
package blocksync

// Clause 49.2.14 constants: 64 consecutive valid headers to lock,
// 16 bad headers within one 125us window to raise hi_ber. At
// 10.3125Gb/s a 125us window is 19531 blocks.
const (
	DefaultLockBlocks   = 64
	DefaultBerWindow    = 19531
	DefaultBerThreshold = 16
)

type State int

const (
	LossOfSync State = iota
	Acquiring
	SyncAcquired
)

func (s State) String() string {
	switch s {
	case LossOfSync:
		return "loss-of-sync"
	case Acquiring:
		return "acquiring"
	case SyncAcquired:
		return "sync-acquired"
	}
	return "invalid"
}

// Sync is the block synchronization state machine. It consumes one
// sync header validity per received block and decides when the
// receiver may trust its alignment. Acquisition is strict: every
// consecutive header must be valid, and each bad header moves the
// alignment hypothesis by one bit. Once locked it is tolerant: bad
// headers only count toward the hi_ber alarm, which drops lock when
// too many land inside one monitoring window.
//
// A Sync has a single writer, the receive path; status reads may
// come from anywhere between Steps.
type Sync struct {
	lockBlocks   int
	berWindow    int
	berThreshold int

	locked bool
	hiBer  bool
	good   int // consecutive valid headers while unlocked
	berCnt int // bad headers in the current window
	winCnt int // blocks into the current window
}

// New returns a state machine with the given acquisition length,
// window size in blocks, and bad header threshold. Zero or negative
// values take the Clause 49 defaults.
func New(lockBlocks, berWindow, berThreshold int) *Sync {
	if lockBlocks <= 0 {
		lockBlocks = DefaultLockBlocks
	}
	if berWindow <= 0 {
		berWindow = DefaultBerWindow
	}
	if berThreshold <= 0 {
		berThreshold = DefaultBerThreshold
	}
	return &Sync{
		lockBlocks:   lockBlocks,
		berWindow:    berWindow,
		berThreshold: berThreshold,
	}
}

// Step consumes the validity of one received sync header and reports
// whether the receiver must slip its alignment by one bit before the
// next block. Slips are only requested while unlocked; a hi_ber drop
// keeps the current alignment so that reacquisition can confirm or
// move it.
func (s *Sync) Step(valid bool) (slip bool) {
	if !s.locked {
		if !valid {
			s.good = 0
			return true
		}
		if s.good++; s.good >= s.lockBlocks {
			s.locked = true
			s.hiBer = false
			s.good = 0
			s.berCnt = 0
			s.winCnt = 0
		}
		return false
	}
	s.winCnt++
	if !valid {
		if s.berCnt++; s.berCnt >= s.berThreshold {
			s.hiBer = true
			s.locked = false
			s.good = 0
			s.berCnt = 0
			s.winCnt = 0
			return false
		}
	}
	if s.winCnt >= s.berWindow {
		s.winCnt = 0
		s.berCnt = 0
	}
	return false
}

// Locked is true while the state machine trusts the alignment.
func (s *Sync) Locked() bool { return s.locked }

// HiBer is true from a threshold trip until lock is next acquired.
func (s *Sync) HiBer() bool { return s.hiBer }

// BerCount is the bad header count of the current window.
func (s *Sync) BerCount() int { return s.berCnt }

func (s *Sync) State() State {
	switch {
	case s.locked:
		return SyncAcquired
	case s.good > 0:
		return Acquiring
	}
	return LossOfSync
}

// Reset drops lock and clears every counter.
func (s *Sync) Reset() {
	s.locked = false
	s.hiBer = false
	s.good = 0
	s.berCnt = 0
	s.winCnt = 0
}
