package main

import (
	"os"

	"fxconverter/internal/app"

	"github.com/sirupsen/logrus"
)

// @title fxconverter API
// @version 1.0
// @description Session-scoped currency converter backed by an external rates service.
// @BasePath /api/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Error("fxconverter stopped")
		os.Exit(1)
	}
}
