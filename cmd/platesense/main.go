package main

import (
	"github.com/MeKo-Tech/platesense/cmd/platesense/cmd"
)

func main() {
	cmd.Execute()
}
