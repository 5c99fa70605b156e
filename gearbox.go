// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package pcs

// gearbox adapts between the 66 bit block stream and the narrower
// serial interface words. It is a bit fifo over 64 bit words; bit 0
// of bits[0] at offset head is the next bit onto or off the wire.
type gearbox struct {
	bits []uint64
	head uint // bit offset into bits[0], < 64
	n    uint // bits queued
}

func mask(k uint) uint64 {
	if k >= 64 {
		return ^uint64(0)
	}
	return 1<<k - 1
}

// push appends the low k bits of v, k <= 64.
func (g *gearbox) push(v uint64, k uint) {
	v &= mask(k)
	pos := g.head + g.n
	for uint(len(g.bits))*64 < pos+k {
		g.bits = append(g.bits, 0)
	}
	w, b := pos>>6, pos&63
	g.bits[w] |= v << b
	if b+k > 64 {
		g.bits[w+1] |= v >> (64 - b)
	}
	g.n += k
}

// pop removes and returns the next k bits, k <= min(64, n).
func (g *gearbox) pop(k uint) (v uint64) {
	v = g.bits[0] >> g.head
	if g.head+k > 64 {
		v |= g.bits[1] << (64 - g.head)
	}
	v &= mask(k)
	g.head += k
	g.n -= k
	if g.head >= 64 {
		g.head -= 64
		g.bits = g.bits[1:]
	}
	return
}

func (g *gearbox) reset() { *g = gearbox{} }
