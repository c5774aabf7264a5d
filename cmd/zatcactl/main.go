// Command zatcactl es la CLI de operación: sincronización, cola offline, cadena de hashes y tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

func main() {
	c := &cli{fs: afero.NewOsFs()}
	if err := c.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
