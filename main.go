package main

import "github.com/atikulmunna/pixelog/internal/cmd"

func main() {
	cmd.Execute()
}
