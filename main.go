package main

import (
	"context"
	"os"

	"github.com/yoke233/sleuth/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
