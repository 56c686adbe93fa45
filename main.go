// Package main is the entry point for the reelin application.
package main

import (
	"github.com/samber/lo"

	"github.com/reelin-cli/reelin/cmd"
	"github.com/reelin-cli/reelin/config"
	"github.com/reelin-cli/reelin/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
