package main

import "github.com/mvp-joe/resgraph/internal/cli"

func main() {
	cli.Execute()
}
