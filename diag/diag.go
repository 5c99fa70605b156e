// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package diag generates and scores XGMII test traffic for link
// verification: pattern sources, a frame scoreboard, and a sync
// header corrupter for exercising the receiver's error handling.
package diag

import (
	"github.com/platinasystems/pcs/lfsr"
)

// Pattern produces the data words of test frames. Reset returns to
// the first word; a Source resets its pattern at each frame start so
// any frame boundary realigns a scoreboard.
type Pattern interface {
	Next() uint64
	Reset()
}

// Patterns names the available test patterns.
var Patterns = map[string]func() Pattern{
	"incr":   func() Pattern { return new(incr) },
	"prbs31": func() Pattern { return prbs{lfsr.NewPRBS31()} },
	"zeroes": func() Pattern { return fixed(0) },
	"ones":   func() Pattern { return fixed(^uint64(0)) },
	"alt":    func() Pattern { return new(alt) },
}

type incr struct{ n uint64 }

func (p *incr) Next() (v uint64) {
	v = 0x0102030405060708 + p.n*0x1010101010101010
	p.n++
	return
}

func (p *incr) Reset() { p.n = 0 }

type fixed uint64

func (p fixed) Next() uint64 { return uint64(p) }
func (p fixed) Reset()       {}

type alt struct{ phase bool }

func (p *alt) Next() (v uint64) {
	v = 0x5555555555555555
	if p.phase {
		v = 0xaaaaaaaaaaaaaaaa
	}
	p.phase = !p.phase
	return
}

func (p *alt) Reset() { p.phase = false }

type prbs struct{ *lfsr.PRBS31 }

func (p prbs) Next() uint64 { return p.Next64() }
