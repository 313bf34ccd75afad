// Package main provides the interactive chat client.
package main

import (
	"fmt"
	"os"

	"github.com/ai-gateway/chatstream-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
