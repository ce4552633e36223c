package main

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/seuros/sleepboard/internal/cli"
	"github.com/seuros/sleepboard/internal/handlers"
	"github.com/seuros/sleepboard/internal/logging"
)

//go:embed VERSION
var versionFile string

//go:embed dashboard.html
var dashboardTemplate []byte

//go:embed assets/dashboard.js
var dashboardScript []byte

//go:embed assets/dashboard.css
var dashboardStyle []byte

var executeCLI = cli.Execute

func run() error {
	version := strings.TrimSpace(versionFile)
	return executeCLI(version, handlers.Assets{
		Template: dashboardTemplate,
		Script:   dashboardScript,
		Style:    dashboardStyle,
	})
}

func main() {
	if err := run(); err != nil {
		logging.Fatal("sleepboard execution failed", zap.Error(err))
	}
}
