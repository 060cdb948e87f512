package main

import (
	"log"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/app"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.Run(cfg)
}
