package main

import (
	"os"

	"github.com/wonny/shelforder/cmd/shelforder/commands"
)

// main is the entry point for the shelforder CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/shelforder [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
