// SPDX-License-Identifier: MPL-2.0

// cyan injects tweaks, frameworks and app extensions into iOS applications.
package main

import "github.com/cyan-tools/cyan/cmd/cyan"

func main() {
	cmd.Execute()
}
