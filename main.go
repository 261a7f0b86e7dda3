// Command sdlcwizard generates software development lifecycle artifacts for a
// project description, one reviewed and approved step at a time.
package main

import "sdlcwizard/internal/cli"

func main() {
	cli.Execute()
}
