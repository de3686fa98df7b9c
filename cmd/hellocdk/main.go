package main

import (
	"github.com/linecard/hellocdk/cmd/cli"
	"github.com/linecard/hellocdk/internal/tracing"
	"github.com/linecard/hellocdk/internal/util"
)

func main() {
	util.SetLogLevel()

	_, shutdown := tracing.InitOtel()
	defer shutdown()

	cli.Invoke()
}
