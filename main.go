// Command nexus tracks medication and supplement protocols.
package main

import "github.com/chiptspb/biohacker-nexus/cmd"

func main() {
	cmd.Execute()
}
