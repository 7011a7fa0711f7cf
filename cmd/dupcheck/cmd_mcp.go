package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nocopy/dupcheck/pkg/mcpserver"
)

func cmdMCP(ctx context.Context, _ []string) int {
	if err := mcpserver.New().Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dupcheck mcp: %v\n", err)
		return 1
	}
	return 0
}
