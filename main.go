package main

import (
	"os"

	"github.com/Parthita/train-delay-backend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
