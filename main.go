package main

import "github.com/orgpulse/orgpulse/cmd"

func main() {
	cmd.Execute()
}
