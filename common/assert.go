package common

import (
	"runtime"

	"github.com/devlights/gomy/output"
)

func SH_Assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}

// RuntimeStack prints stacks of all goroutines to stdout.
// REFERENCES
//   - https://pkg.go.dev/runtime#Stack
func RuntimeStack() error {
	var (
		chAll = make(chan []byte, 1)
	)

	var (
		getStack = func(all bool) []byte {
			var (
				buf = make([]byte, 1024)
			)

			for {
				n := runtime.Stack(buf, all)
				if n < len(buf) {
					return buf[:n]
				}
				buf = make([]byte, 2*len(buf))
			}
		}
	)

	go func(ch chan<- []byte) {
		defer close(ch)
		ch <- getStack(true)
	}(chAll)

	for v := range chAll {
		output.Stdoutl("=== stack-all   ", string(v))
	}

	return nil
}
