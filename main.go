package main

import "github.com/hannajonsd/bundle-audit/cli"

func main() {
	cli.Execute()
}
