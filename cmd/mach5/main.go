package main

import "github.com/appsworld/mach5/cmd/mach5/cmd"

func main() {
	cmd.Execute()
}
