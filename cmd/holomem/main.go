// holomem stores batches of vectors in a holographic associative memory and
// recovers them by key.
package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "holomem",
		Short:         "Holographic associative memory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDemoCmd(), newServeCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
