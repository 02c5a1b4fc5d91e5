// Command voxchat is a terminal client for a voice-authenticated
// assistant. It records the microphone, logs the user in by voice,
// exchanges messages with the chat backend, and speaks replies back.
//
// Usage:
//
//	voxchat [flags]              - run the TUI
//	voxchat delete-user <name>   - remove an enrolled voice
//	voxchat history [session]    - list past sessions or print one
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
