// The main package for the rssdigest executable.
package main

import (
	"github.com/alexisyang718-beep/karpathy-rss-digest/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
