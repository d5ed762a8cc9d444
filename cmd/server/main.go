package main

import (
	_ "github.com/lib/pq"

	"github.com/conceptlab/genea/internal/server"
	"github.com/conceptlab/genea/internal/util"
	"github.com/conceptlab/genea/pkg/logger"
	"github.com/conceptlab/genea/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
