// speedlog - Internet Speed History
//
// speedlog imports historical speed test logfiles into monthly CSV datasets,
// keeps them up to date by sampling the connection periodically, and reports
// gaps and statistics over the collected samples.
package main

import (
	"os"
	_ "time/tzdata"

	"github.com/ccollicutt/speedlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
