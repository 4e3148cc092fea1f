package main

import (
	"flag"
	"log"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/healthpredictor/internal/app"
	"yashubustudio/healthpredictor/predictor"
)

func main() {
	configPath := flag.String("config", "", "Path to config.json (default: ./config.json)")
	flag.Parse()

	cfg, err := predictor.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("healthpredictor: %v", err)
	}
	a := fyneapp.NewWithID(app.AppID)
	if err := app.Run(a, cfg); err != nil {
		log.Fatalf("healthpredictor: %v", err)
	}
}
