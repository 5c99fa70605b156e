// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lang

import "testing"

var hello = Alt{
	EnUS: "hello",
	FrFR: "bonjour",
	JaJP: "こんにちは",
	ZhCN: "你好",
}

func Test(t *testing.T) {
	for lang, expect := range hello {
		env = lang
		if s := hello.String(); s != expect {
			t.Fatalf("%q != %q", s, expect)
		} else {
			t.Logf("%s: %s", lang, s)
		}
	}
	env = "xx_XX.UTF-8"
	if s := hello.String(); s != hello[Default] {
		t.Fatalf("default: %q != %q", s, hello[Default])
	}
}
