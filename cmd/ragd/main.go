// Command ragd indexes documents into a vector store and serves a
// retrieval-augmented chat API over them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragd/internal/adapters/driving/cli"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
