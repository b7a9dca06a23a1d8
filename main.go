// The main package for the profile-vault executable.
package main

import (
	"github.com/JakeFAU/profile-vault/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
