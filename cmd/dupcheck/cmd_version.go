package main

import (
	"fmt"

	"github.com/nocopy/dupcheck/internal/version"
)

func cmdVersion(args []string) {
	for _, arg := range args {
		if arg == "--json" {
			fmt.Println(version.JSON())
			return
		}
	}
	fmt.Println(version.String())
}
