// Command ream runs and operates the reAM cyclic controller.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/DavidWenzler/reAM250-sub000/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	atexit.Exit(cli.GetExitCode(err))
}
