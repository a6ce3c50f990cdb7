package main

import "github.com/bmharper/bitmaptool/internal/cli"

func main() {
	cli.Execute()
}
