// SPDX-License-Identifier: MPL-2.0

// Command asdf2deb packages asdf-managed tools as Debian archives built
// inside disposable hardened containers.
package main

import cmd "asdf2deb/cmd/asdf2deb"

func main() {
	cmd.Execute()
}
