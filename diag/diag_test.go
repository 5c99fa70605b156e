// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package diag

import (
	"testing"

	"github.com/platinasystems/pcs/xgmii"
)

func TestIncrPattern(t *testing.T) {
	p := Patterns["incr"]()
	for i, want := range []uint64{
		0x0102030405060708,
		0x1112131415161718,
		0x2122232425262728,
		0x3132333435363738,
	} {
		if got := p.Next(); got != want {
			t.Fatalf("word %d: got %016x, want %016x", i, got, want)
		}
	}
	p.Reset()
	if got := p.Next(); got != 0x0102030405060708 {
		t.Fatalf("got %016x after reset", got)
	}
}

func TestAltPattern(t *testing.T) {
	p := Patterns["alt"]()
	if a, b := p.Next(), p.Next(); a != 0x5555555555555555 ||
		b != 0xaaaaaaaaaaaaaaaa {
		t.Fatalf("got %016x, %016x", a, b)
	}
}

func TestPrbsPattern(t *testing.T) {
	p := Patterns["prbs31"]()
	a, b := p.Next(), p.Next()
	if a == b {
		t.Fatalf("degenerate prbs: %016x twice", a)
	}
	p.Reset()
	if got := p.Next(); got != a {
		t.Fatalf("got %016x after reset, want %016x", got, a)
	}
}

func TestFixedPatterns(t *testing.T) {
	if v := Patterns["zeroes"]().Next(); v != 0 {
		t.Fatalf("zeroes gave %016x", v)
	}
	if v := Patterns["ones"]().Next(); v != ^uint64(0) {
		t.Fatalf("ones gave %016x", v)
	}
}

func TestSourceCycle(t *testing.T) {
	s := NewSource(Patterns["incr"](), 2, 3)
	for cycle := 0; cycle < 2; cycle++ {
		if w := s.Next(); w != xgmii.StartWord() {
			t.Fatalf("cycle %d: got %v, want start", cycle, w)
		}
		for i, want := range []uint64{
			0x0102030405060708, 0x1112131415161718,
		} {
			w := s.Next()
			if w.Ctl != 0 || w.Data != want {
				t.Fatalf("cycle %d word %d: got %v", cycle, i, w)
			}
		}
		if w := s.Next(); w != xgmii.TermWord(0, 0) {
			t.Fatalf("cycle %d: got %v, want terminate", cycle, w)
		}
		for i := 0; i < 3; i++ {
			if w := s.Next(); !w.IsIdle() {
				t.Fatalf("cycle %d idle %d: got %v", cycle, i, w)
			}
		}
	}
}

func TestSinkScoresCleanStream(t *testing.T) {
	s := NewSource(Patterns["incr"](), 4, 2)
	k := NewSink(Patterns["incr"](), 4)
	for i := 0; i < 8*10; i++ {
		k.Next(s.Next())
	}
	if k.GoodFrames != 10 {
		t.Fatalf("good frames %d, want 10", k.GoodFrames)
	}
	if k.GoodWords != 40 {
		t.Fatalf("good words %d, want 40", k.GoodWords)
	}
	if k.PatternErrs != 0 || k.FramingErrs != 0 || k.ErrorChars != 0 {
		t.Fatalf("errors on clean stream: %d %d %d",
			k.PatternErrs, k.FramingErrs, k.ErrorChars)
	}
	if k.Idles != 20 {
		t.Fatalf("idles %d, want 20", k.Idles)
	}
}

func TestSinkScoresDamage(t *testing.T) {
	k := NewSink(Patterns["incr"](), 2)
	k.Next(xgmii.StartWord())
	k.Next(xgmii.DataWord(0xbad))
	k.Next(xgmii.DataWord(0x1112131415161718))
	k.Next(xgmii.TermWord(0, 0))
	if k.PatternErrs != 1 || k.GoodWords != 1 {
		t.Fatalf("pattern errs %d good %d", k.PatternErrs, k.GoodWords)
	}
	if k.GoodFrames != 0 || k.FramingErrs != 1 {
		t.Fatalf("frames %d/%d after pattern error",
			k.GoodFrames, k.FramingErrs)
	}

	k = NewSink(Patterns["incr"](), 2)
	k.Next(xgmii.StartWord())
	k.Next(xgmii.DataWord(0x0102030405060708))
	k.Next(xgmii.ErrorWord())
	k.Next(xgmii.DataWord(0x1112131415161718))
	k.Next(xgmii.TermWord(0, 0))
	if k.ErrorChars != 8 {
		t.Fatalf("error chars %d, want 8", k.ErrorChars)
	}
	if k.GoodFrames != 0 {
		t.Fatal("damaged frame counted good")
	}

	// terminate with no frame open
	k = NewSink(Patterns["incr"](), 2)
	k.Next(xgmii.TermWord(0, 0))
	if k.FramingErrs != 1 {
		t.Fatalf("framing errs %d, want 1", k.FramingErrs)
	}
}

func TestInjector(t *testing.T) {
	j := NewInjector(16)
	j.Arm(2)
	// headers of blocks 0 and 1 are at bits 0 and 66
	var flipped []uint64
	for w := 0; w < 9; w++ {
		if v := j.Next(0); v != 0 {
			flipped = append(flipped, uint64(w)*16+bitpos(v))
		}
	}
	if len(flipped) != 2 || flipped[0] != 0 || flipped[1] != 66 {
		t.Fatalf("flipped bits %v, want [0 66]", flipped)
	}
	// unarmed leaves the stream alone
	for w := 0; w < 9; w++ {
		if v := j.Next(0); v != 0 {
			t.Fatalf("unarmed injector flipped %016x", v)
		}
	}
}

func bitpos(v uint64) uint64 {
	var n uint64
	for v>>n&1 == 0 {
		n++
	}
	return n
}
