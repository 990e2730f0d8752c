// The main package for the about-harvester executable.
package main

import "github.com/JakeFAU/about-harvester/cmd"

func main() {
	cmd.Execute()
}
