package main

import "texbuild/internal/cli"

func main() {
	cli.Execute()
}
