package main

import "kfit/cmd"

func main() {
	cmd.NewCLI().Execute()
}
