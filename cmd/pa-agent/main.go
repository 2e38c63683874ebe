package main

import "pa-agent/internal/cli"

func main() {
	cli.Execute()
}
