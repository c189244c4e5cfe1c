package main

import (
	"os"

	"github.com/strongdm/ai-cxdb-det/cmd/detctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
