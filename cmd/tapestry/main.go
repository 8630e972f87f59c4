// Command tapestry is the CLI entry point.
package main

import "github.com/mesh-intelligence/tapestry/internal/cli"

func main() {
	cli.Execute()
}
