package main

import "github.com/devicelab-dev/uipilot/pkg/cli"

func main() {
	cli.Execute()
}
