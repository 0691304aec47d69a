package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/RampDesk/config"
)

// platform-emulator — локальный backend платформы дилера поверх postgres.
// Нужен для демо и интеграционных прогонов, когда настоящей платформы нет.
func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runEmulator(ctx, cfg, emulatorOpts{}); err != nil && err != context.Canceled {
		panic(err)
	}
}
