package main

import "image-compressor/internal/cli"

func main() {
	cli.Execute()
}
