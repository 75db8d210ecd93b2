// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package assert

import "fmt"

// Assertf panics with the formatted message if the cond is false.
// It is reserved for invariant breaches that must never be survived.
func Assertf(cond bool, format string, a ...any) {
	if !cond {
		msg := fmt.Sprintf(format, a...)
		panic(msg)
	}
}
