package logging

import (
	"log"
	"os"

	"github.com/mattn/go-colorable"
)

func init() {
	// Set the global logger to use standard error, wrapped so that ANSI color
	// codes emitted by Warn/Error render correctly in Windows consoles.
	log.SetOutput(colorable.NewColorable(os.Stderr))
	log.SetFlags(0)
}
