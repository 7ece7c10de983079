// Command steplab is the STEP face naming tool.
package main

import "github.com/chazu/steplab/internal/cli"

func main() {
	cli.Execute()
}
