// Command cminusfc-validate structurally validates a cminus-f AST JSON
// file without lowering or optimizing it, the same narrow role
// cmd/alas-validate/main.go plays for internal/validator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/zkdzuishuai/cminusfc/internal/diag"
)

func main() {
	var input string
	flag.StringVar(&input, "file", "", "cminus-f AST JSON file to validate (reads from stdin if not provided)")
	flag.Parse()

	var data []byte
	var err error
	if input == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error reading input: %v", err))
		os.Exit(1)
	}

	if _, err := diag.ValidateJSON(data); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Validation failed:\n%v", err))
		os.Exit(1)
	}

	fmt.Println(color.GreenString("Validation successful!"))
}
