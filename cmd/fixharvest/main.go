package main

import "github.com/fixwire/fixharvest/cmd"

func main() {
	cmd.Execute()
}
