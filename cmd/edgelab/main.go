package main

import (
	"os"

	"github.com/wonny/edgelab/cmd/edgelab/commands"
)

// main is the entry point for the EdgeLab CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/edgelab [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
