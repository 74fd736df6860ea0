// themetree - branch-coloured editor windows
//
// themetree watches the git branch of a workspace and writes a matching accent
// colour into the editor's workspace settings, so every branch and worktree
// gets its own window colour.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import "github.com/jmylchreest/themetree/internal/cli"

func main() {
	cli.Execute()
}
