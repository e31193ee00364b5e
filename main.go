package main

import cmd "github.com/rohmanhakim/polite-crawler/internal/cli"

func main() {
	cmd.Execute()
}
