// Copyright © 2026 The tangolint authors

package main

import "github.com/davejwalsh/tangolint/cmd"

func main() {
	cmd.Execute()
}
