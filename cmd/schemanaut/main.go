package main

import "github.com/schemanaut/schemanaut/internal/cli"

func main() {
	cli.Execute()
}
