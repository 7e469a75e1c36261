// Command modsh is an interactive console for exploring Go packages.
package main

import (
	"fmt"
	"os"

	"github.com/telnet2/go-practice/modsh/cmd/modsh/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
