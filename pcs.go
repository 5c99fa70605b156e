// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pcs models a single lane 10GBASE-R physical coding
// sublayer, IEEE 802.3 Clause 49. The transmit path encodes XGMII
// words into 66 bit blocks, scrambles the payloads, and gears the
// stream down to serial words; the receive path reverses each step
// after hunting for block alignment with the sync state machine.
//
// The model is synchronous and single owner per direction: one
// XGMII word in yields 66 line bits out, status reads between calls
// see the state as of the last block. Nothing here blocks and no
// error stops the stream; malformed input and line damage surface
// through counters, the error indications, and substituted blocks
// or words, the way the hardware behaves.
package pcs

import (
	"github.com/platinasystems/pcs/baser"
	"github.com/platinasystems/pcs/blocksync"
	"github.com/platinasystems/pcs/lfsr"
	"github.com/platinasystems/pcs/xgmii"
)

// DefaultSerdesWidth is the serial interface width in bits.
const DefaultSerdesWidth = 16

type Config struct {
	SerdesWidth  int // bits per serial word
	LockBlocks   int // consecutive valid headers to lock
	BerWindow    int // blocks per BER monitor window
	BerThreshold int // bad headers within one window to raise hi_ber
}

func DefaultConfig() Config {
	return Config{
		SerdesWidth:  DefaultSerdesWidth,
		LockBlocks:   blocksync.DefaultLockBlocks,
		BerWindow:    blocksync.DefaultBerWindow,
		BerThreshold: blocksync.DefaultBerThreshold,
	}
}

type PCS struct {
	cfg Config

	txScr  lfsr.Scrambler
	txGear gearbox

	rxDes  lfsr.Descrambler
	rxGear gearbox
	rxSlip uint
	sync   *blocksync.Sync
	rxOut  []xgmii.Word

	encErr bool
	decErr bool

	counters [n_counters]uint64
}

func New(cfg Config) *PCS {
	if cfg.SerdesWidth <= 0 || cfg.SerdesWidth > 64 {
		cfg.SerdesWidth = DefaultSerdesWidth
	}
	return &PCS{
		cfg: cfg,
		sync: blocksync.New(cfg.LockBlocks, cfg.BerWindow,
			cfg.BerThreshold),
	}
}

// TxWord encodes one XGMII word into the transmit stream. A word
// that fits no block format still transmits, as the all error
// block, and raises the encode error indication.
func (p *PCS) TxWord(w xgmii.Word) {
	b, ok := baser.Encode(w)
	if !ok {
		p.encErr = true
		p.counters[tx_encode_errors]++
	}
	p.counters[tx_blocks]++
	if b.Sync == baser.SyncData {
		p.counters[tx_data_blocks]++
	} else {
		p.counters[tx_control_blocks]++
	}
	// the sync header bypasses the scrambler
	p.txGear.push(uint64(b.Sync), 2)
	p.txGear.push(p.txScr.Scramble64(b.Payload), 64)
}

// TxSerial pops the next serial word from the transmit gearbox, low
// bit first onto the wire. ok is false when fewer than SerdesWidth
// bits are queued.
func (p *PCS) TxSerial() (v uint64, ok bool) {
	if p.txGear.n < uint(p.cfg.SerdesWidth) {
		return 0, false
	}
	return p.txGear.pop(uint(p.cfg.SerdesWidth)), true
}

// RxSerial pushes one received serial word into the receive gearbox
// and runs the block pipeline over whatever whole blocks are now
// queued.
func (p *PCS) RxSerial(v uint64) {
	p.rxGear.push(v, uint(p.cfg.SerdesWidth))
	for p.rxGear.n >= 66+p.rxSlip {
		p.rxBlock()
	}
}

// rxBlock consumes one 66 bit candidate at the current alignment.
// The descrambler always runs so its state tracks the line; words
// are delivered only while the sync state machine trusts the
// alignment as of this block.
func (p *PCS) rxBlock() {
	if p.rxSlip > 0 {
		p.rxGear.pop(p.rxSlip)
		p.counters[rx_bit_slips] += uint64(p.rxSlip)
		p.rxSlip = 0
	}
	b := baser.Block{Sync: uint8(p.rxGear.pop(2))}
	b.Payload = p.rxDes.Descramble64(p.rxGear.pop(64))
	p.counters[rx_blocks]++
	valid := b.ValidSync()
	if !valid {
		p.counters[rx_bad_sync_headers]++
	}
	wasLocked, wasHiBer := p.sync.Locked(), p.sync.HiBer()
	if p.sync.Step(valid) {
		p.rxSlip = 1
	}
	locked, hiBer := p.sync.Locked(), p.sync.HiBer()
	if locked && !wasLocked {
		p.counters[lock_acquisitions]++
	}
	if wasLocked && !locked {
		p.counters[lock_losses]++
	}
	if hiBer && !wasHiBer {
		p.counters[hi_ber_events]++
	}
	if !locked {
		p.counters[rx_blocks_unlocked]++
		return
	}
	w, ok := baser.Decode(b)
	if !ok {
		p.decErr = true
		p.counters[rx_decode_errors]++
	} else if b.Sync == baser.SyncData {
		p.counters[rx_data_blocks]++
	} else {
		p.counters[rx_control_blocks]++
	}
	p.rxOut = append(p.rxOut, w)
}

// RxWord pops the next decoded XGMII word. ok is false when no word
// is ready, which covers both an idle line and an unlocked receiver.
func (p *PCS) RxWord() (w xgmii.Word, ok bool) {
	if len(p.rxOut) == 0 {
		return
	}
	w, ok = p.rxOut[0], true
	p.rxOut = p.rxOut[1:]
	if len(p.rxOut) == 0 {
		p.rxOut = nil
	}
	return
}

// BlockLock is true while the receiver trusts its block alignment.
func (p *PCS) BlockLock() bool { return p.sync.Locked() }

// HiBer is true from a BER threshold trip until lock reacquires.
func (p *PCS) HiBer() bool { return p.sync.HiBer() }

// Up is the link status: locked and below the error alarm.
func (p *PCS) Up() bool { return p.sync.Locked() && !p.sync.HiBer() }

func (p *PCS) SyncState() blocksync.State { return p.sync.State() }

// BerCount is the bad header count of the current monitor window.
func (p *PCS) BerCount() int { return p.sync.BerCount() }

// EncodeError reports whether any word failed to encode since the
// last call; reading clears the indication. Totals stay in the
// counters.
func (p *PCS) EncodeError() (e bool) {
	e, p.encErr = p.encErr, false
	return
}

// DecodeError reports whether any block failed to decode since the
// last call; reading clears the indication.
func (p *PCS) DecodeError() (e bool) {
	e, p.decErr = p.decErr, false
	return
}

// Reset forces loss of sync and returns every state element,
// scramblers and gearboxes included, to power on values.
func (p *PCS) Reset() {
	p.txScr.Reset()
	p.txGear.reset()
	p.rxDes.Reset()
	p.rxGear.reset()
	p.rxSlip = 0
	p.sync.Reset()
	p.rxOut = nil
	p.encErr = false
	p.decErr = false
	p.counters = [n_counters]uint64{}
}
