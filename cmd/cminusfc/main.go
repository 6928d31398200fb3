// Command cminusfc drives the cminus-f middle-end end to end: decode an
// AST JSON file, validate it, lower it to IR, run the optimization
// pipeline, and print the resulting module. Flag layout and the
// read-from-stdin-if-no-file convention follow cmd/alas-compile/main.go;
// colorized success/failure reporting follows kanso-cli/main.go's
// fatih/color usage.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/zkdzuishuai/cminusfc/internal/diag"
	"github.com/zkdzuishuai/cminusfc/internal/lower"
	"github.com/zkdzuishuai/cminusfc/internal/pass"
)

func main() {
	var input string
	var output string
	var optimize bool
	flag.StringVar(&input, "file", "", "cminus-f AST JSON file to compile (reads from stdin if not provided)")
	flag.StringVar(&output, "o", "", "Output file for the printed IR (default: stdout)")
	flag.BoolVar(&optimize, "opt", true, "Run the optimization pipeline before printing")
	flag.Parse()

	data, err := readInput(input)
	if err != nil {
		fail("Error reading input: %v", err)
	}

	prog, err := diag.ValidateJSON(data)
	if err != nil {
		fail("Validation failed:\n%v", err)
	}

	module, err := lower.Lower(prog)
	if err != nil {
		fail("Lowering failed: %v", err)
	}

	if optimize {
		pass.Default().Run(module)
	}

	rendered := module.Print()
	if output == "" {
		fmt.Print(rendered)
	} else {
		if err := os.WriteFile(output, []byte(rendered), 0o600); err != nil {
			fail("Error writing %s: %v", output, err)
		}
	}

	fmt.Fprintln(os.Stderr, color.GreenString("IR emitted successfully (%d bytes)", len(rendered)))
}

// fail prints a red diagnostic to stderr (so it never pollutes the IR on
// stdout that a back end would otherwise consume) and exits non-zero.
func fail(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString(format, args...))
	os.Exit(1)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
