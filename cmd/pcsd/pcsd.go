// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pcsd provides a daemon that runs a 10GBASE-R PCS over a
// loopback line, publishes its link state and counters to the machine
// redis, and accepts control writes through hset.
package pcsd

import (
	"fmt"
	"net/rpc"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/pcs"
	"github.com/platinasystems/pcs/cmd"
	"github.com/platinasystems/pcs/diag"
	"github.com/platinasystems/pcs/lang"
	"github.com/platinasystems/pcs/xgmii"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
	"github.com/platinasystems/xeth"
)

// Idle words run through the line at each poll, enough to acquire
// lock from a cold start within one poll.
const pollWords = 512

// Carrier flags of the xeth sideband protocol.
const (
	carrierOff uint8 = iota
	carrierOn
)

type Command struct {
	Info
	Init func()
	init sync.Once
}

type Info struct {
	mutex sync.Mutex
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	stop  chan struct{}

	pcs *pcs.PCS
	inj *diag.Injector

	poll          time.Duration // seconds between polls
	pendingReset  bool
	pendingInject int

	seq   uint64
	lasts map[string]string
	lastu map[string]uint64

	ifname    string
	ifindex   int32
	carrier   uint8
	carrierOk bool
}

func (*Command) String() string { return "pcsd" }

func (*Command) Usage() string {
	return "pcsd [-xeth IFNAME] [-driver NAME]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "PCS monitoring daemon, publishes to redis",
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}

	parm, args := parms.New(args, "-xeth", "-driver")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}

	c.stop = make(chan struct{})
	c.lasts = make(map[string]string)
	c.lastu = make(map[string]uint64)
	c.poll = 5
	c.pcs = pcs.New(pcs.DefaultConfig())
	c.inj = diag.NewInjector(pcs.DefaultSerdesWidth)

	b := &backoff.Backoff{
		Min:    1 * time.Second,
		Max:    60 * time.Second,
		Factor: 2,
		Jitter: false,
	}
	for redis.IsReady() != nil {
		t := time.NewTicker(b.Duration())
		select {
		case <-c.stop:
			t.Stop()
			return nil
		case <-t.C:
		}
		t.Stop()
	}

	var err error
	if c.pub, err = publisher.New(); err != nil {
		return err
	}

	if c.rpc, err = atsock.NewRpcServer("pcsd"); err != nil {
		return err
	}

	rpc.Register(&c.Info)
	err = redis.Assign(redis.DefaultHash+":pcs.", "pcsd", "Info")
	if err != nil {
		return err
	}

	if name := parm.ByName["-xeth"]; len(name) > 0 {
		driver := parm.ByName["-driver"]
		if len(driver) == 0 {
			driver = "platina-mk1"
		}
		if err = c.startXeth(driver, name); err != nil {
			return err
		}
		defer xeth.Stop()
	}

	c.publish("ready", "true")
	c.publish("pollInterval", int64(c.poll))

	d := c.pollDuration()
	t := time.NewTicker(d)
	for {
		select {
		case <-c.stop:
			t.Stop()
			return nil
		case <-t.C:
			c.update()
			if nd := c.pollDuration(); nd != d {
				d = nd
				t.Stop()
				t = time.NewTicker(d)
			}
		}
	}
}

func (c *Command) Close() error {
	close(c.stop)
	return nil
}

func (c *Command) startXeth(driver, name string) error {
	if err := xeth.Start(driver); err != nil {
		return err
	}
	entry := xeth.Interface.Named(name)
	if entry == nil {
		xeth.Stop()
		return fmt.Errorf("%s: no such interface", name)
	}
	c.ifname = name
	c.ifindex = entry.Ifinfo.Index
	return nil
}

func (c *Command) pollDuration() time.Duration {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.poll * time.Second
}

// update applies the writes queued since the last poll, runs idle
// words through the line, and publishes whatever changed.
func (c *Command) update() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.seq++
	p := c.pcs

	if c.pendingReset {
		p.Reset()
		c.inj = diag.NewInjector(pcs.DefaultSerdesWidth)
		c.pendingReset = false
	}
	if c.pendingInject > 0 {
		c.inj.Arm(c.pendingInject)
		c.pendingInject = 0
	}

	for n := 0; n < pollWords; n++ {
		p.TxWord(xgmii.IdleWord())
		for {
			v, ok := p.TxSerial()
			if !ok {
				break
			}
			p.RxSerial(c.inj.Next(v))
		}
	}
	for {
		if _, ok := p.RxWord(); !ok {
			break
		}
	}

	up := p.Up()
	status := "down"
	if up {
		status = "up"
	}
	c.pubString("block_lock", strconv.FormatBool(p.BlockLock()))
	c.pubString("hi_ber", strconv.FormatBool(p.HiBer()))
	c.pubString("state", p.SyncState().String())
	c.pubString("status", status)
	c.pubString("ber_count", strconv.Itoa(p.BerCount()))

	// Publish zero values on the first poll so every counter has a
	// valid entry in redis; after that only publish changes.
	first := c.seq == 1
	p.ForeachCounter(func(name string, value uint64) {
		if first || c.lastu[name] != value {
			c.lastu[name] = value
			c.publish(strings.Replace(name, " ", "_", -1), value)
		}
	})

	if len(c.ifname) > 0 {
		flag := carrierOff
		if up {
			flag = carrierOn
		}
		if !c.carrierOk || flag != c.carrier {
			err := xeth.Carrier(c.ifindex, flag)
			if err != nil {
				log.Print("daemon", "err", "carrier ",
					c.ifname, ": ", err)
			} else {
				c.carrier = flag
				c.carrierOk = true
			}
		}
	}
}

func (i *Info) pubString(key, value string) {
	if i.lasts[key] != value {
		i.publish(key, value)
		i.lasts[key] = value
	}
}

func (i *Info) publish(key string, value interface{}) {
	i.pub.Print("pcs.", key, ": ", value)
}

func (i *Info) Hset(a args.Hset, r *reply.Hset) error {
	value := string(a.Value)
	field := strings.TrimPrefix(a.Field, "pcs.")

	i.mutex.Lock()
	defer i.mutex.Unlock()

	switch field {
	case "reset":
		i.pendingReset = true
	case "pollInterval":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("pollInterval must be 1 second or longer")
		}
		i.poll = time.Duration(n)
	case "inject":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("%s: invalid inject count", value)
		}
		i.pendingInject += n
	case "carrier":
		if len(i.ifname) == 0 {
			return fmt.Errorf("no xeth sideband")
		}
		entry := xeth.Interface.Named(value)
		if entry == nil {
			return fmt.Errorf("%s: no such interface", value)
		}
		i.ifname = value
		i.ifindex = entry.Ifinfo.Index
		i.carrierOk = false
	default:
		return fmt.Errorf("cannot hset: %s", a.Field)
	}
	i.publish(field, value)
	*r = 1
	return nil
}
