package main

import (
	"log"

	"github.com/thiagokokada/interdiff-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("interdiff-go: %v", err)
	}
}
