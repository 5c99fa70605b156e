// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package diag

// Injector corrupts sync headers on a serial 10GBASE-R stream. It
// tracks the absolute bit position of the stream, which must begin
// on a block boundary; block k's header starts at bit 66k. Flipping
// the first header bit always yields an invalid header.
type Injector struct {
	width uint   // bits per serial word
	pos   uint64 // absolute bit position of the next word
	left  int    // headers still to corrupt
}

func NewInjector(width uint) *Injector {
	return &Injector{width: width}
}

// Arm schedules the next n block headers for corruption.
func (j *Injector) Arm(n int) { j.left += n }

// Next passes one serial word through, flipping the first header bit
// of any armed block the word covers.
func (j *Injector) Next(v uint64) uint64 {
	if j.left > 0 {
		hdr := (j.pos + 65) / 66 * 66
		for hdr < j.pos+uint64(j.width) && j.left > 0 {
			v ^= 1 << uint(hdr-j.pos)
			j.left--
			hdr += 66
		}
	}
	j.pos += uint64(j.width)
	return v
}
