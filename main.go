// SPDX-License-Identifier: MPL-2.0

package main

import cmd "cargo-wapm/cmd/cargo-wapm"

func main() {
	cmd.Execute()
}
