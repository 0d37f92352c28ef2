package main

import "memoex/cmd"

func main() {
	cmd.Execute()
}
