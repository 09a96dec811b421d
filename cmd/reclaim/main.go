package main

import (
	"reclaim/cmd/handlers"
	"reclaim/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
