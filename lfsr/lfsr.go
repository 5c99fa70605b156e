// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lfsr has the 10GBASE-R self synchronizing payload scrambler,
// polynomial 1 + x^39 + x^58, and the PRBS31 test pattern generator.
package lfsr

const mask58 = 1<<58 - 1

// Scrambler shifts its own output into the 58 bit state so a remote
// descrambler can recover the state from the line alone.
type Scrambler struct {
	state uint64
}

// Next scrambles one bit; b must be 0 or 1.
func (s *Scrambler) Next(b uint64) uint64 {
	b ^= s.state>>38&1 ^ s.state>>57&1
	s.state = (s.state<<1 | b) & mask58
	return b
}

// Scramble64 scrambles the 64 payload bits of one block, bit 0 first.
func (s *Scrambler) Scramble64(v uint64) (o uint64) {
	st := s.state
	for i := uint(0); i < 64; i++ {
		b := v>>i&1 ^ st>>38&1 ^ st>>57&1
		st = (st<<1 | b) & mask58
		o |= b << i
	}
	s.state = st & mask58
	return
}

func (s *Scrambler) Reset() { s.state = 0 }

// Descrambler shifts the received bit into its state, converging on
// the remote scrambler state within 58 bits of any starting point.
type Descrambler struct {
	state uint64
}

// Next descrambles one bit; b must be 0 or 1.
func (d *Descrambler) Next(b uint64) uint64 {
	o := b ^ d.state>>38&1 ^ d.state>>57&1
	d.state = (d.state<<1 | b) & mask58
	return o
}

// Descramble64 descrambles the 64 payload bits of one block, bit 0
// first.
func (d *Descrambler) Descramble64(v uint64) (o uint64) {
	st := d.state
	for i := uint(0); i < 64; i++ {
		b := v >> i & 1
		o |= (b ^ st>>38&1 ^ st>>57&1) << i
		st = (st<<1 | b) & mask58
	}
	d.state = st & mask58
	return
}

func (d *Descrambler) Reset() { d.state = 0 }
