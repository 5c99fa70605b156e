// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package baser encodes XGMII words into 66 bit blocks and back, the
// 64b/66b code of 10GBASE-R.
package baser

import (
	"github.com/platinasystems/pcs/xgmii"
)

// Sync header of a 66 bit block, a 2 bit field sent bit 0 first.
// Only the two mixed values are valid; 00 and 11 mark damage.
const (
	SyncData uint8 = 1 // 01, scrambled 64 bit payload is all data
	SyncCtrl uint8 = 2 // 10, payload starts with a block type field
)

// Block is one 66 bit unit of the line: 2 sync bits and 64 payload
// bits. Payload bit 0 follows the sync header on the wire.
type Block struct {
	Sync    uint8
	Payload uint64
}

func (b Block) ValidSync() bool {
	return b.Sync == SyncData || b.Sync == SyncCtrl
}

// Control block type field values.
const (
	typeCtrl     = 0x1e // C0..C7
	typeOS4      = 0x2d // C0..C3, O4, D5..D7
	typeStart4   = 0x33 // C0..C3, S4, D5..D7
	typeOS0      = 0x4b // O0, D1..D3, C4..C7
	typeOS04     = 0x55 // O0, D1..D3, O4, D5..D7
	typeOSStart4 = 0x66 // O0, D1..D3, S4, D5..D7
	typeStart0   = 0x78 // S0, D1..D7
	typeTerm0    = 0x87
	typeTerm1    = 0x99
	typeTerm2    = 0xaa
	typeTerm3    = 0xb4
	typeTerm4    = 0xcc
	typeTerm5    = 0xd2
	typeTerm6    = 0xe1
	typeTerm7    = 0xff
)

var typeTerm = [8]uint64{
	typeTerm0, typeTerm1, typeTerm2, typeTerm3,
	typeTerm4, typeTerm5, typeTerm6, typeTerm7,
}

// 7 bit control codes.
const (
	ccIdle  = 0x00
	ccLPI   = 0x06
	ccError = 0x1e
	ccRes0  = 0x2d
	ccRes1  = 0x33
	ccRes2  = 0x4b
	ccRes3  = 0x55
	ccRes4  = 0x66
	ccRes5  = 0x78
)

const errPayload = typeCtrl |
	ccError<<8 | ccError<<15 | ccError<<22 | ccError<<29 |
	ccError<<36 | ccError<<43 | ccError<<50 | ccError<<57

// ErrBlock is the all /E/ control block sent for words that fit no
// legal block format.
var ErrBlock = Block{Sync: SyncCtrl, Payload: errPayload}

func ctrlCode(b byte) (uint64, bool) {
	switch b {
	case xgmii.IDLE:
		return ccIdle, true
	case xgmii.LPI:
		return ccLPI, true
	case xgmii.ERROR:
		return ccError, true
	case xgmii.RES0:
		return ccRes0, true
	case xgmii.RES1:
		return ccRes1, true
	case xgmii.RES2:
		return ccRes2, true
	case xgmii.RES3:
		return ccRes3, true
	case xgmii.RES4:
		return ccRes4, true
	case xgmii.RES5:
		return ccRes5, true
	}
	return 0, false
}

func ctrlChar(c uint64) (byte, bool) {
	switch c {
	case ccIdle:
		return xgmii.IDLE, true
	case ccLPI:
		return xgmii.LPI, true
	case ccError:
		return xgmii.ERROR, true
	case ccRes0:
		return xgmii.RES0, true
	case ccRes1:
		return xgmii.RES1, true
	case ccRes2:
		return xgmii.RES2, true
	case ccRes3:
		return xgmii.RES3, true
	case ccRes4:
		return xgmii.RES4, true
	case ccRes5:
		return xgmii.RES5, true
	}
	return 0, false
}

func oCode(b byte) (uint64, bool) {
	switch b {
	case xgmii.SEQUENCE:
		return 0x0, true
	case xgmii.SIGNAL:
		return 0xf, true
	}
	return 0, false
}

func oChar(c uint64) (byte, bool) {
	switch c {
	case 0x0:
		return xgmii.SEQUENCE, true
	case 0xf:
		return xgmii.SIGNAL, true
	}
	return 0, false
}

// ctrlField packs lanes lo..hi as consecutive 7 bit codes from the
// given payload bit.
func ctrlField(w xgmii.Word, lo, hi int, shift uint) (p uint64, ok bool) {
	for i := lo; i <= hi; i++ {
		b, ctl := w.Lane(i)
		if !ctl {
			return 0, false
		}
		c, valid := ctrlCode(b)
		if !valid {
			return 0, false
		}
		p |= c << shift
		shift += 7
	}
	return p, true
}

// ctrlLanes unpacks consecutive 7 bit codes into lanes lo..hi.
func ctrlLanes(w xgmii.Word, p uint64, lo, hi int, shift uint) (xgmii.Word, bool) {
	for i := lo; i <= hi; i++ {
		b, ok := ctrlChar(p >> shift & 0x7f)
		if !ok {
			return w, false
		}
		w = w.WithCtl(i, b)
		shift += 7
	}
	return w, true
}

// Encode maps one XGMII word to one block. A word that fits no legal
// block format yields ErrBlock and false; the line never stalls.
func Encode(w xgmii.Word) (Block, bool) {
	if w.Ctl == 0 {
		return Block{Sync: SyncData, Payload: w.Data}, true
	}
	if p, ok := encodeCtrl(w); ok {
		return Block{Sync: SyncCtrl, Payload: p}, true
	}
	return ErrBlock, false
}

func encodeCtrl(w xgmii.Word) (uint64, bool) {
	b0, _ := w.Lane(0)
	b4, _ := w.Lane(4)
	switch w.Ctl {
	case 0x01:
		if b0 != xgmii.START {
			break
		}
		return typeStart0 | w.Data&^uint64(0xff), true
	case 0x1f:
		cc, ok := ctrlField(w, 0, 3, 8)
		if !ok {
			break
		}
		if b4 == xgmii.START {
			return typeStart4 | cc | w.Data&0xffffff0000000000, true
		}
		if o4, ok := oCode(b4); ok {
			return typeOS4 | cc | o4<<36 |
				w.Data&0xffffff0000000000, true
		}
	case 0x11:
		o0, ok := oCode(b0)
		if !ok {
			break
		}
		if b4 == xgmii.START {
			return typeOSStart4 | w.Data&0xffffff00 | o0<<32 |
				w.Data&0xffffff0000000000, true
		}
		if o4, ok := oCode(b4); ok {
			return typeOS04 | w.Data&0xffffff00 | o0<<32 |
				o4<<36 | w.Data&0xffffff0000000000, true
		}
	case 0xf1:
		o0, ok := oCode(b0)
		if !ok {
			break
		}
		cc, ok := ctrlField(w, 4, 7, 36)
		if !ok {
			break
		}
		return typeOS0 | w.Data&0xffffff00 | o0<<32 | cc, true
	}
	// /T/ in the lowest control lane ends the frame; preceding
	// lanes are the final data octets.
	n := 0
	for ; w.Ctl>>uint(n)&1 == 0; n++ {
	}
	if b, _ := w.Lane(n); b == xgmii.TERM && w.Ctl == 0xff<<uint(n)&0xff {
		cc, ok := ctrlField(w, n+1, 7, uint(15+7*n))
		if !ok {
			return 0, false
		}
		data := w.Data & (1<<uint(8*n) - 1) << 8
		return typeTerm[n] | data | cc, true
	}
	if w.Ctl == 0xff {
		if cc, ok := ctrlField(w, 0, 7, 8); ok {
			return typeCtrl | cc, true
		}
	}
	return 0, false
}

// Decode maps one block back to an XGMII word. A block with a bad
// sync header, an unknown type, or an unknown code yields the all /E/
// word and false.
func Decode(b Block) (xgmii.Word, bool) {
	switch b.Sync {
	case SyncData:
		return xgmii.DataWord(b.Payload), true
	case SyncCtrl:
		if w, ok := decodeCtrl(b.Payload); ok {
			return w, true
		}
	}
	return xgmii.ErrorWord(), false
}

func decodeCtrl(p uint64) (w xgmii.Word, ok bool) {
	t := byte(p)
	switch t {
	case typeCtrl:
		return ctrlLanes(w, p, 0, 7, 8)
	case typeStart0:
		w = xgmii.DataWord(p &^ uint64(0xff))
		return w.WithCtl(0, xgmii.START), true
	case typeStart4:
		w, ok = ctrlLanes(w, p, 0, 3, 8)
		if !ok {
			return
		}
		w = w.WithCtl(4, xgmii.START)
		return dataLanes(w, p, 5, 7), true
	case typeOS4:
		w, ok = ctrlLanes(w, p, 0, 3, 8)
		if !ok {
			return
		}
		b, valid := oChar(p >> 36 & 0xf)
		if !valid {
			return w, false
		}
		w = w.WithCtl(4, b)
		return dataLanes(w, p, 5, 7), true
	case typeOS0, typeOS04, typeOSStart4:
		b, valid := oChar(p >> 32 & 0xf)
		if !valid {
			return w, false
		}
		w = dataLanes(w.WithCtl(0, b), p, 1, 3)
		switch t {
		case typeOS0:
			return ctrlLanes(w, p, 4, 7, 36)
		case typeOS04:
			b, valid = oChar(p >> 36 & 0xf)
			if !valid {
				return w, false
			}
			w = w.WithCtl(4, b)
		case typeOSStart4:
			w = w.WithCtl(4, xgmii.START)
		}
		return dataLanes(w, p, 5, 7), true
	}
	for n := range typeTerm {
		if uint64(t) != typeTerm[n] {
			continue
		}
		for i := 0; i < n; i++ {
			w = w.WithData(i, byte(p>>uint(8+8*i)))
		}
		w = w.WithCtl(n, xgmii.TERM)
		return ctrlLanes(w, p, n+1, 7, uint(15+7*n))
	}
	return w, false
}

func dataLanes(w xgmii.Word, p uint64, lo, hi int) xgmii.Word {
	for i := lo; i <= hi; i++ {
		w = w.WithData(i, byte(p>>uint(8*i)))
	}
	return w
}
