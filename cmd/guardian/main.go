package main

import "github.com/ogulcanaydogan/cloud-guardian/internal/cli"

func main() {
	cli.Execute()
}
