// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package pcsdiag

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/loopback"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/pcs"
	"github.com/platinasystems/pcs/diag"
	"github.com/platinasystems/pcs/lang"
	"github.com/platinasystems/pcs/xgmii"
	"github.com/platinasystems/url"
)

type Command struct{}

func (Command) String() string { return "pcsdiag" }

func (Command) Usage() string {
	return "pcsdiag [OPTION]... [DEVICE]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "run test frames through the PCS and score the result",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	pcsdiag encodes, scrambles, and gears test frames onto the given
	serial device, then decodes whatever comes back and scores it
	against the transmitted pattern. Without DEVICE the line is an
	in-memory loopback.

OPTIONS
	-pattern NAME
		Payload pattern: incr, prbs31, zeroes, ones, or alt.
		The default is incr.

	-size N
		Data words per frame. The default is 16.

	-gap N
		Idle words between frames. The default is 8.

	-frames N
		Frames to send; 0 means keep going.

	-corrupt N
		Corrupt one sync header every N frames.

	-f URL
		Fill payloads with the bytes of URL instead of a pattern.

	-q
		Don't print good frame milestones, only errors.`,
	}
}

func (Command) Main(args ...string) error {
	flag, args := flags.New(args, "-q")
	parm, args := parms.New(args, "-pattern", "-size", "-gap",
		"-frames", "-corrupt", "-f")

	if len(parm.ByName["-pattern"]) == 0 {
		parm.ByName["-pattern"] = "incr"
	}
	if len(parm.ByName["-size"]) == 0 {
		parm.ByName["-size"] = "16"
	}
	if len(parm.ByName["-gap"]) == 0 {
		parm.ByName["-gap"] = "8"
	}
	if len(parm.ByName["-frames"]) == 0 {
		parm.ByName["-frames"] = "0"
	}
	if len(parm.ByName["-corrupt"]) == 0 {
		parm.ByName["-corrupt"] = "0"
	}

	size, err := strconv.Atoi(parm.ByName["-size"])
	if err != nil {
		return err
	}
	if size < 1 {
		return fmt.Errorf("%d: invalid size", size)
	}
	gap, err := strconv.Atoi(parm.ByName["-gap"])
	if err != nil {
		return err
	}
	if gap < 1 {
		return fmt.Errorf("%d: invalid gap", gap)
	}
	frames, err := strconv.Atoi(parm.ByName["-frames"])
	if err != nil {
		return err
	}
	if frames <= 0 {
		frames = 10000000
	}
	corrupt, err := strconv.Atoi(parm.ByName["-corrupt"])
	if err != nil {
		return err
	}

	var txPat, rxPat diag.Pattern
	if u := parm.ByName["-f"]; len(u) > 0 {
		f, err := url.Open(u)
		if err != nil {
			return err
		}
		data, err := ioutil.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("%s: empty", u)
		}
		txPat = &filePattern{data: data}
		rxPat = &filePattern{data: data}
	} else {
		mk, found := diag.Patterns[parm.ByName["-pattern"]]
		if !found {
			return fmt.Errorf("%s: invalid pattern",
				parm.ByName["-pattern"])
		}
		txPat = mk()
		rxPat = mk()
	}

	if len(args) > 1 {
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	var iodev io.ReadWriter
	if len(args) == 1 {
		dev, err := os.OpenFile(args[0], os.O_RDWR, 0664)
		if err != nil {
			return err
		}
		defer dev.Close()
		iodev = dev
	} else {
		iodev = loopback.New()
	}

	tx := pcs.New(pcs.DefaultConfig())
	src := diag.NewSource(txPat, size, gap)
	inj := diag.NewInjector(pcs.DefaultSerdesWidth)

	go doSink(iodev, pcs.New(pcs.DefaultConfig()),
		diag.NewSink(rxPat, size), flag.ByName["-q"])

	// idle preamble so the far receiver can hunt and lock
	for i := 0; i < 800; i++ {
		tx.TxWord(xgmii.IdleWord())
	}
	buf := serial(tx, inj, nil)
	if len(buf) > 0 {
		if _, err = iodev.Write(buf); err != nil {
			return err
		}
	}

	cycle := size + gap + 2
	for i := 0; i < frames; i++ {
		if corrupt > 0 && i%corrupt == 0 {
			inj.Arm(1)
		}
		for n := 0; n < cycle; n++ {
			tx.TxWord(src.Next())
		}
		if buf = serial(tx, inj, buf[:0]); len(buf) > 0 {
			if _, err = iodev.Write(buf); err != nil {
				return err
			}
		}
	}

	// trailing idles push the last frame through the line
	for i := 0; i < 64; i++ {
		tx.TxWord(xgmii.IdleWord())
	}
	if buf = serial(tx, inj, buf[:0]); len(buf) > 0 {
		if _, err = iodev.Write(buf); err != nil {
			return err
		}
	}

	tx.ForeachCounter(func(name string, value uint64) {
		if value != 0 {
			fmt.Printf("tx %s: %d\n", name, value)
		}
	})

	return nil
}

// serial pops the pending line words, runs them through the header
// injector, and appends them to b low byte first.
func serial(p *pcs.PCS, inj *diag.Injector, b []byte) []byte {
	for {
		v, ok := p.TxSerial()
		if !ok {
			break
		}
		v = inj.Next(v)
		b = append(b, byte(v), byte(v>>8))
	}
	return b
}

func doSink(dev io.Reader, p *pcs.PCS, sink *diag.Sink, quiet bool) {
	b := make([]byte, 1024)
	var half byte
	var haveHalf, locked bool
	var goodFrames, patternErrs, framingErrs, errorChars int64

	for {
		r, err := dev.Read(b)
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Printf("doSink dev.read unexpected error %s\n",
				err)
			continue
		}
		for i := 0; i < r; i++ {
			if !haveHalf {
				half, haveHalf = b[i], true
				continue
			}
			p.RxSerial(uint64(half) | uint64(b[i])<<8)
			haveHalf = false
		}
		for {
			w, ok := p.RxWord()
			if !ok {
				break
			}
			sink.Next(w)
		}
		if l := p.BlockLock(); l != locked {
			fmt.Printf("block lock: %t\n", l)
			locked = l
		}
		if sink.GoodFrames != goodFrames {
			if !quiet && sink.GoodFrames%10000 == 0 {
				fmt.Printf("sink.GoodFrames: %d\n",
					sink.GoodFrames)
			}
			goodFrames = sink.GoodFrames
		}
		if sink.PatternErrs != patternErrs {
			fmt.Printf("sink.PatternErrs: %d\n", sink.PatternErrs)
			patternErrs = sink.PatternErrs
		}
		if sink.FramingErrs != framingErrs {
			fmt.Printf("sink.FramingErrs: %d\n", sink.FramingErrs)
			framingErrs = sink.FramingErrs
		}
		if sink.ErrorChars != errorChars {
			fmt.Printf("sink.ErrorChars: %d\n", sink.ErrorChars)
			errorChars = sink.ErrorChars
		}
	}
}

// filePattern replays the bytes of a file as frame payloads, eight
// bytes per word, lane 0 first, wrapping at the end.
type filePattern struct {
	data []byte
	pos  int
}

func (p *filePattern) Next() (v uint64) {
	for i := 0; i < 8; i++ {
		v |= uint64(p.data[p.pos]) << uint(8*i)
		if p.pos++; p.pos == len(p.data) {
			p.pos = 0
		}
	}
	return
}

func (p *filePattern) Reset() { p.pos = 0 }
