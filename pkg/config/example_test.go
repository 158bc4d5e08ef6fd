package config_test

import (
	"fmt"

	"github.com/wonny/shelforder/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Sort strategy: %s\n", cfg.Sort.Strategy)
	fmt.Printf("Excluded groupings: %v\n", cfg.Sort.Excluded)
}
