package main

import "github.com/distantorigin/lwjgl3ify-installer/internal/cli"

func main() {
	cli.Execute()
}
