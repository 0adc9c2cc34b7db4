package main

import (
	"os"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
