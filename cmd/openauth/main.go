package main

import (
	"log"

	"github.com/openauthhq/openauth/app"
	"github.com/openauthhq/openauth/config"
)

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app.New(cfg).Run()
}
