// cmd/makita/main.go
//
// makita reads, diagnoses and repairs Makita LXT battery packs over a
// single-wire bus (DS2482 bridge or a UART), or against a simulated pack.
package main

import (
	"fmt"
	"os"

	"batterycode-go/errcode"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errcode.Of(err), err)
		os.Exit(1)
	}
}
