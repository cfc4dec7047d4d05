package main

import "cetus-cli/cmd"

func main() {
	cmd.Execute()
}
