// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/config"
	"github.com/zekarki/WeatherAPI/internal/server"
)

// @title WeatherDB API
// @version 1.0
// @description Role-gated weather sensor data API.
// @BasePath /
// @securityDefinitions.basic BasicAuth
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ClearConsole()
	DrawLogo()
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting WeatherDB API v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		" _      __         __  __              ___  ___ ",
		"| | /| / /__ ___ _/ /_/ /  ___ ____   / _ \\/ _ )",
		"| |/ |/ / -_) _ `/ __/ _ \\/ -_) __/  / // / _  |",
		"|__/|__/\\__/\\_,_/\\__/_//_/\\__/_/    /____/____/ ",
		"..................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
