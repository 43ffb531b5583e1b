package main

import cmd "github.com/rohmanhakim/pinned-repos/internal/cli"

func main() {
	cmd.Execute()
}
