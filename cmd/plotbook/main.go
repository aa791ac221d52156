// Command plotbook plans novels from the command line.
package main

import "github.com/mesh-intelligence/plotbook/internal/cli"

func main() {
	cli.Execute()
}
