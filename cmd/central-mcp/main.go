package main

import (
	"os"

	"github.com/tphakala/go-central/cmd/central-mcp/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(commands.Execute(commands.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}, os.Args[1:]))
}
