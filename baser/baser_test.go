// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package baser

import (
	"math/rand"
	"testing"

	"github.com/platinasystems/pcs/xgmii"
)

var ctrlChars = []byte{
	xgmii.IDLE, xgmii.LPI, xgmii.ERROR,
	xgmii.RES0, xgmii.RES1, xgmii.RES2,
	xgmii.RES3, xgmii.RES4, xgmii.RES5,
}

var oChars = []byte{xgmii.SEQUENCE, xgmii.SIGNAL}

func randCtrl(r *rand.Rand) byte { return ctrlChars[r.Intn(len(ctrlChars))] }
func randO(r *rand.Rand) byte    { return oChars[r.Intn(len(oChars))] }

// randWord returns a word that fits one of the legal block formats.
func randWord(r *rand.Rand) (w xgmii.Word) {
	ctrlTo := func(lo, hi int) {
		for i := lo; i <= hi; i++ {
			w = w.WithCtl(i, randCtrl(r))
		}
	}
	dataTo := func(lo, hi int) {
		for i := lo; i <= hi; i++ {
			w = w.WithData(i, byte(r.Uint32()))
		}
	}
	switch r.Intn(9) {
	case 0:
		dataTo(0, 7)
	case 1:
		ctrlTo(0, 7)
	case 2:
		w = w.WithCtl(0, xgmii.START)
		dataTo(1, 7)
	case 3:
		ctrlTo(0, 3)
		w = w.WithCtl(4, xgmii.START)
		dataTo(5, 7)
	case 4:
		ctrlTo(0, 3)
		w = w.WithCtl(4, randO(r))
		dataTo(5, 7)
	case 5:
		w = w.WithCtl(0, randO(r))
		dataTo(1, 3)
		w = w.WithCtl(4, xgmii.START)
		dataTo(5, 7)
	case 6:
		w = w.WithCtl(0, randO(r))
		dataTo(1, 3)
		w = w.WithCtl(4, randO(r))
		dataTo(5, 7)
	case 7:
		w = w.WithCtl(0, randO(r))
		dataTo(1, 3)
		ctrlTo(4, 7)
	case 8:
		n := r.Intn(8)
		dataTo(0, n-1)
		w = w.WithCtl(n, xgmii.TERM)
		ctrlTo(n+1, 7)
	}
	return
}

func TestDataBlock(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for i := 0; i < 1000; i++ {
		w := xgmii.DataWord(r.Uint64())
		b, ok := Encode(w)
		if !ok {
			t.Fatalf("encode %v failed", w)
		}
		if b.Sync != SyncData || b.Payload != w.Data {
			t.Fatalf("got %d/%016x, want data block of %v",
				b.Sync, b.Payload, w)
		}
		d, ok := Decode(b)
		if !ok || d != w {
			t.Fatalf("got %v, want %v", d, w)
		}
	}
}

func TestTypeField(t *testing.T) {
	qword := xgmii.Word{}.
		WithCtl(0, xgmii.SEQUENCE).
		WithData(1, 1).WithData(2, 2).WithData(3, 3).
		WithCtl(4, xgmii.IDLE).WithCtl(5, xgmii.IDLE).
		WithCtl(6, xgmii.IDLE).WithCtl(7, xgmii.IDLE)
	ctrlStart := xgmii.Word{}.
		WithCtl(0, xgmii.IDLE).WithCtl(1, xgmii.IDLE).
		WithCtl(2, xgmii.IDLE).WithCtl(3, xgmii.IDLE).
		WithCtl(4, xgmii.START).
		WithData(5, 5).WithData(6, 6).WithData(7, 7)
	osStart := xgmii.Word{}.
		WithCtl(0, xgmii.SEQUENCE).
		WithData(1, 1).WithData(2, 2).WithData(3, 3).
		WithCtl(4, xgmii.START).
		WithData(5, 5).WithData(6, 6).WithData(7, 7)
	osOS := osStart.WithCtl(4, xgmii.SEQUENCE)
	for _, x := range []struct {
		w xgmii.Word
		t byte
	}{
		{xgmii.IdleWord(), typeCtrl},
		{xgmii.ErrorWord(), typeCtrl},
		{xgmii.StartWord(), typeStart0},
		{ctrlStart, typeStart4},
		{ctrlStart.WithCtl(4, xgmii.SEQUENCE), typeOS4},
		{osStart, typeOSStart4},
		{osOS, typeOS04},
		{qword, typeOS0},
		{xgmii.TermWord(0, 0), typeTerm0},
		{xgmii.TermWord(1, 0x11), typeTerm1},
		{xgmii.TermWord(2, 0x2221), typeTerm2},
		{xgmii.TermWord(3, 0x333231), typeTerm3},
		{xgmii.TermWord(4, 0x44434241), typeTerm4},
		{xgmii.TermWord(5, 0x5554535251), typeTerm5},
		{xgmii.TermWord(6, 0x666564636261), typeTerm6},
		{xgmii.TermWord(7, 0x77767574737271), typeTerm7},
	} {
		b, ok := Encode(x.w)
		if !ok {
			t.Fatalf("encode %v failed", x.w)
		}
		if b.Sync != SyncCtrl || byte(b.Payload) != x.t {
			t.Fatalf("%v: got %d/%016x, want type %02x",
				x.w, b.Sync, b.Payload, x.t)
		}
		d, ok := Decode(b)
		if !ok || d != x.w {
			t.Fatalf("type %02x: got %v, want %v", x.t, d, x.w)
		}
	}
}

func TestExactPayloads(t *testing.T) {
	for _, x := range []struct {
		w xgmii.Word
		p uint64
	}{
		{xgmii.IdleWord(), 0x1e},
		{xgmii.StartWord(), 0xd555555555555578},
		{xgmii.TermWord(3, 0x030201), 0x030201b4},
		{xgmii.ErrorWord(), errPayload},
	} {
		b, ok := Encode(x.w)
		if !ok {
			t.Fatalf("encode %v failed", x.w)
		}
		if b.Payload != x.p {
			t.Fatalf("%v: got %016x, want %016x", x.w, b.Payload, x.p)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		w := randWord(r)
		b, ok := Encode(w)
		if !ok {
			t.Fatalf("encode %v failed", w)
		}
		d, ok := Decode(b)
		if !ok {
			t.Fatalf("decode %d/%016x of %v failed",
				b.Sync, b.Payload, w)
		}
		if d != w {
			t.Fatalf("got %v, want %v (block %016x)",
				d, w, b.Payload)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	for _, w := range []xgmii.Word{
		// start anywhere but a frame boundary
		xgmii.Word{}.WithCtl(4, xgmii.START),
		xgmii.Word{}.WithCtl(2, xgmii.START),
		// data following a terminate
		xgmii.TermWord(0, 0).WithData(5, 0xaa),
		// characters that are not on the control code list
		xgmii.IdleWord().WithCtl(3, 0x55),
		xgmii.IdleWord().WithCtl(0, xgmii.SEQUENCE),
		// ordered set with a control char in its data lanes
		xgmii.Word{}.WithCtl(0, xgmii.SEQUENCE).
			WithCtl(1, xgmii.IDLE).WithCtl(4, xgmii.SIGNAL),
		// stray control bit in a data word
		xgmii.DataWord(0x0123456789abcdef).WithCtl(6, 0xfe),
	} {
		b, ok := Encode(w)
		if ok {
			t.Fatalf("encode %v: got %d/%016x, want error",
				w, b.Sync, b.Payload)
		}
		if b != ErrBlock {
			t.Fatalf("encode %v: got %016x, want %016x",
				w, b.Payload, ErrBlock.Payload)
		}
		d, ok := Decode(b)
		if !ok || d != xgmii.ErrorWord() {
			t.Fatalf("decode of error block gave %v", d)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, b := range []Block{
		{Sync: 0, Payload: 0x1e},
		{Sync: 3, Payload: 0x1e},
		{Sync: SyncCtrl, Payload: 0x00},
		{Sync: SyncCtrl, Payload: 0x2b},
		// unassigned 7 bit code in an all control block
		{Sync: SyncCtrl, Payload: typeCtrl | 0x7f<<8},
		// unassigned ordered set code
		{Sync: SyncCtrl, Payload: typeOS4 | 0x5<<36},
		{Sync: SyncCtrl, Payload: typeOS0 | 0x5<<32},
	} {
		w, ok := Decode(b)
		if ok {
			t.Fatalf("decode %d/%016x: got %v, want error",
				b.Sync, b.Payload, w)
		}
		if w != xgmii.ErrorWord() {
			t.Fatalf("decode %d/%016x: got %v, want all errors",
				b.Sync, b.Payload, w)
		}
	}
}

func TestValidSync(t *testing.T) {
	for sync, want := range map[uint8]bool{0: false, 1: true, 2: true, 3: false} {
		if got := (Block{Sync: sync}).ValidSync(); got != want {
			t.Errorf("sync %d: got %v, want %v", sync, got, want)
		}
	}
}
