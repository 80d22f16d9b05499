package main

import (
	"procurement-engine/app"

	"github.com/labstack/gommon/log"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	app.Run(cfg)
}
