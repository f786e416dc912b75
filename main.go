package main

import (
	"github.com/printhq/cloudprint/cmd"
)

func main() {
	cmd.Execute()
}
