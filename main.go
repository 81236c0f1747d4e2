package main

import "github.com/nextlevelbuilder/slashbot/cmd"

func main() {
	cmd.Execute()
}
