package main

import (
	"os"

	"github.com/plandata/kpi-etl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
