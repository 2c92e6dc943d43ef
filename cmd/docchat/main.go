package main

import "github.com/docchat/cli/internal/cli"

func main() {
	cli.Execute()
}
