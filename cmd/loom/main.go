package main

import (
	"github.com/openkg/loom/cmd/loom/cmd"
)

func main() {
	cmd.Execute()
}
