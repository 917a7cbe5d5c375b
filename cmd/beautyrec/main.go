package main

import "beautyrec/internal/cli"

func main() {
	cli.Execute()
}
