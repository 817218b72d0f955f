// Command devcrew runs a crew of role-specialised workers, coordinated by a
// manager, against a request about the current project.
package main

import "os"

func main() {
	os.Exit(Execute())
}
