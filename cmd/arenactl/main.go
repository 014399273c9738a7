package main

import (
	"github.com/petrhn/arena-server/internal/cli"
)

func main() {
	cli.Execute()
}
