// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// settle generates week-by-week relocation checklists.
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/settlesmart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
