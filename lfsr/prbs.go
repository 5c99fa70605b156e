// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lfsr

// PRBS31 is the inverted pseudo random bit sequence of polynomial
// 1 + x^28 + x^31 used as a line test pattern.
type PRBS31 struct {
	state uint32
}

const prbs31Seed = 1<<31 - 1

func NewPRBS31() *PRBS31 {
	return &PRBS31{state: prbs31Seed}
}

// Next returns the next pattern bit, 0 or 1.
func (p *PRBS31) Next() uint64 {
	if p.state == 0 {
		p.state = prbs31Seed
	}
	fb := p.state>>30&1 ^ p.state>>27&1
	p.state = (p.state<<1 | fb) & prbs31Seed
	return uint64(fb ^ 1)
}

// Next64 returns the next 64 pattern bits, bit 0 first.
func (p *PRBS31) Next64() (v uint64) {
	for i := uint(0); i < 64; i++ {
		v |= p.Next() << i
	}
	return
}

func (p *PRBS31) Reset() { p.state = prbs31Seed }
