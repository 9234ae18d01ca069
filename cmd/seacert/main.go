// Command seacert is the fleet operator's command-line interface to the
// compliance API: ship registry, certificate schedules, the survey calendar
// and recalculation triggers.
package main

import (
	"os"

	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
