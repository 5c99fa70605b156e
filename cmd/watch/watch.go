// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package watch

import (
	"fmt"
	"strings"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/platinasystems/pcs/lang"
	"github.com/platinasystems/redis"
)

type Command struct{}

func (Command) String() string { return "watch" }

func (Command) Usage() string { return "watch [PREFIX]" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print pcs state changes published to redis",
	}
}

func (Command) Main(args ...string) error {
	prefix := "pcs."
	switch len(args) {
	case 0:
	case 1:
		prefix = args[0]
	default:
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	psc, err := redis.Subscribe(redis.DefaultHash)
	if err != nil {
		return err
	}
	defer psc.Close()
	for {
		switch t := psc.Receive().(type) {
		case redigo.Message:
			if strings.HasPrefix(string(t.Data), prefix) {
				fmt.Println(string(t.Data))
			}
		case error:
			return t
		}
	}
}
