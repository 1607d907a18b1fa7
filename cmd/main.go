package main

import (
	"log"

	"github.com/victornm/quizforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("quizforge: %v", err)
	}
}
