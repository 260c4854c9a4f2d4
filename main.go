package main

import "github.com/boswecw/cortex/cmd"

func main() {
	cmd.Execute()
}
