// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package xgmii models the 10 gigabit media independent interface as a
// stream of 8 octet words with per lane control bits.
package xgmii

import "fmt"

// Control characters.
const (
	LPI      byte = 0x06
	IDLE     byte = 0x07
	SEQUENCE byte = 0x9c
	SIGNAL   byte = 0x5c
	START    byte = 0xfb
	TERM     byte = 0xfd
	ERROR    byte = 0xfe

	RES0 byte = 0x1c
	RES1 byte = 0x3c
	RES2 byte = 0x7c
	RES3 byte = 0xbc
	RES4 byte = 0xdc
	RES5 byte = 0xf7
)

// Word is one XGMII transfer: 8 octet lanes packed little endian in
// Data (lane 0 is bits 7:0) and a control bit per lane in Ctl.
type Word struct {
	Data uint64
	Ctl  uint8
}

func (w Word) Lane(i int) (b byte, ctl bool) {
	b = byte(w.Data >> (uint(i) * 8))
	ctl = w.Ctl>>uint(i)&1 != 0
	return
}

func (w Word) WithData(i int, b byte) Word {
	s := uint(i) * 8
	w.Data = w.Data&^(0xff<<s) | uint64(b)<<s
	w.Ctl &^= 1 << uint(i)
	return w
}

func (w Word) WithCtl(i int, b byte) Word {
	s := uint(i) * 8
	w.Data = w.Data&^(0xff<<s) | uint64(b)<<s
	w.Ctl |= 1 << uint(i)
	return w
}

func (w Word) IsIdle() bool {
	return w == IdleWord()
}

func (w Word) String() string {
	return fmt.Sprintf("%016x/%02x", w.Data, w.Ctl)
}

// IdleWord is the inter-frame fill, /I/ in all 8 lanes.
func IdleWord() Word {
	var w Word
	for i := 0; i < 8; i++ {
		w = w.WithCtl(i, IDLE)
	}
	return w
}

// DataWord carries 8 octets with no control lanes.
func DataWord(v uint64) Word {
	return Word{Data: v}
}

// StartWord begins a frame: /S/ then 6 octets of preamble and the
// start frame delimiter.
func StartWord() Word {
	w := DataWord(0xd5555555555555 << 8)
	return w.WithCtl(0, START)
}

// TermWord ends a frame with /T/ in the given lane and /I/ after; the
// lanes before /T/ carry the final data octets.
func TermWord(lane int, data uint64) Word {
	w := DataWord(data)
	w = w.WithCtl(lane, TERM)
	for i := lane + 1; i < 8; i++ {
		w = w.WithCtl(i, IDLE)
	}
	return w
}

// ErrorWord is /E/ in all 8 lanes.
func ErrorWord() Word {
	var w Word
	for i := 0; i < 8; i++ {
		w = w.WithCtl(i, ERROR)
	}
	return w
}
