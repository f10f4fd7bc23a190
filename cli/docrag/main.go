package main

import (
	"os"

	docragcmder "github.com/papercomputeco/docrag/cmd/docrag"
)

func main() {
	cmd := docragcmder.NewDocragCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
