// cubeturn - a 3x3x3 rotating-cube puzzle for the terminal.
package main

import (
	"github.com/SeamusWaldron/cubeturn/internal/cli"
)

func main() {
	cli.Execute()
}
