package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"wave-swap/cmd"
)

func main() {
	// A .env file is a convenience for local use; its absence is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
