// The main package for the lunchmenu executable.
package main

import "github.com/JakeFAU/lunchmenu/cmd"

func main() {
	cmd.Execute()
}
