package main

import "ptyterm/cmd"

func main() {
	cmd.Execute()
}
