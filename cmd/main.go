package main

import (
	"context"
	"log"
	"os"

	"github.com/yungbote/coursecraft-backend/internal/app"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func main() {
	logg, err := logger.New(os.Getenv("APP_MODE"))
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logg.Sync()

	a, err := app.New(logg)
	if err != nil {
		logg.Fatal("App init failed", "error", err)
	}
	defer a.Close()

	if err := a.StartWorker(context.Background()); err != nil {
		logg.Fatal("Embedded worker start failed", "error", err)
	}

	if err := a.Serve(); err != nil {
		logg.Fatal("HTTP server failed", "error", err)
	}
}
