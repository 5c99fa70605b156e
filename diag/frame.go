// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package diag

import (
	"github.com/platinasystems/pcs/xgmii"
)

// Source produces the XGMII word stream of a repeating test frame:
// start, Size pattern data words, terminate, then Gap idle words.
type Source struct {
	Size, Gap int
	pattern   Pattern
	pos       int
}

func NewSource(p Pattern, size, gap int) *Source {
	if size < 1 {
		size = 1
	}
	if gap < 1 {
		gap = 1
	}
	return &Source{Size: size, Gap: gap, pattern: p}
}

// Next returns the next word of the frame cycle.
func (s *Source) Next() (w xgmii.Word) {
	switch {
	case s.pos == 0:
		s.pattern.Reset()
		w = xgmii.StartWord()
	case s.pos <= s.Size:
		w = xgmii.DataWord(s.pattern.Next())
	case s.pos == s.Size+1:
		w = xgmii.TermWord(0, 0)
	default:
		w = xgmii.IdleWord()
	}
	if s.pos++; s.pos == s.Size+2+s.Gap {
		s.pos = 0
	}
	return
}

// Sink scores a received XGMII word stream against the frame cycle a
// Source produces. The exported fields are the running score.
type Sink struct {
	GoodFrames  int64
	GoodWords   int64
	PatternErrs int64
	FramingErrs int64
	ErrorChars  int64
	Idles       int64

	size    int
	pattern Pattern
	inFrame bool
	words   int
	bad     bool
}

func NewSink(p Pattern, size int) *Sink {
	if size < 1 {
		size = 1
	}
	return &Sink{size: size, pattern: p}
}

// Next scores one received word.
func (k *Sink) Next(w xgmii.Word) {
	if w.Ctl == 0 {
		if !k.inFrame {
			k.FramingErrs++
			return
		}
		k.words++
		if w.Data == k.pattern.Next() {
			k.GoodWords++
		} else {
			k.PatternErrs++
			k.bad = true
		}
		return
	}
	if n := errorChars(w); n > 0 {
		k.ErrorChars += int64(n)
		if k.inFrame {
			k.bad = true
		}
		return
	}
	if b, ctl := w.Lane(0); ctl && b == xgmii.START {
		if k.inFrame {
			k.FramingErrs++
		}
		k.inFrame = true
		k.words = 0
		k.bad = false
		k.pattern.Reset()
		return
	}
	if hasTerm(w) {
		if !k.inFrame {
			k.FramingErrs++
			return
		}
		k.inFrame = false
		if k.bad || k.words != k.size {
			k.FramingErrs++
		} else {
			k.GoodFrames++
		}
		return
	}
	if w.IsIdle() {
		k.Idles++
		return
	}
	k.FramingErrs++
}

func errorChars(w xgmii.Word) (n int) {
	for i := 0; i < 8; i++ {
		if b, ctl := w.Lane(i); ctl && b == xgmii.ERROR {
			n++
		}
	}
	return
}

func hasTerm(w xgmii.Word) bool {
	for i := 0; i < 8; i++ {
		if b, ctl := w.Lane(i); ctl && b == xgmii.TERM {
			return true
		}
	}
	return false
}
