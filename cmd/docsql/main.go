// Command docsql runs SQL over a per-project document store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/docsql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
