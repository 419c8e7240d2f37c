package main

import (
	"github.com/best-trading-indicator-tools/ai-blogs-generator/cmd/handlers"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
