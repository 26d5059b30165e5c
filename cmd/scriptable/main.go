package main

import (
	"os"

	"github.com/bridger-herman/scriptable-game/internal/logger"
	_ "github.com/bridger-herman/scriptable-game/scripts"
)

func main() {
	// Info level until the config picks one.
	logger.Init()
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
