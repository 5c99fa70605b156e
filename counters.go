// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package pcs

// Event counters in the style of hardware MIB counters. They sum
// over the life of the core and clear on Reset.
const (
	tx_blocks = iota
	tx_data_blocks
	tx_control_blocks
	tx_encode_errors
	rx_blocks
	rx_data_blocks
	rx_control_blocks
	rx_decode_errors
	rx_bad_sync_headers
	rx_bit_slips
	rx_blocks_unlocked
	lock_acquisitions
	lock_losses
	hi_ber_events
	n_counters
)

var counterNames = [n_counters]string{
	tx_blocks:           "tx blocks",
	tx_data_blocks:      "tx data blocks",
	tx_control_blocks:   "tx control blocks",
	tx_encode_errors:    "tx encode errors",
	rx_blocks:           "rx blocks",
	rx_data_blocks:      "rx data blocks",
	rx_control_blocks:   "rx control blocks",
	rx_decode_errors:    "rx decode errors",
	rx_bad_sync_headers: "rx bad sync headers",
	rx_bit_slips:        "rx bit slips",
	rx_blocks_unlocked:  "rx blocks unlocked",
	lock_acquisitions:   "lock acquisitions",
	lock_losses:         "lock losses",
	hi_ber_events:       "hi ber events",
}

// ForeachCounter calls f with each counter name and value.
func (p *PCS) ForeachCounter(f func(name string, value uint64)) {
	for i := range p.counters {
		f(counterNames[i], p.counters[i])
	}
}
