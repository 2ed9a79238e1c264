// Package cli implements the pre-upload compression tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imagectl",
		Short: "Compress images before uploading them",
		Long: `imagectl shrinks images on the local machine the same way the
upload form does in the browser, so large originals never travel over
the wire.

Examples:
  # Compress photos with the avatar preset
  imagectl compress --preset avatar photo1.jpg photo2.png

  # Compress into a separate directory with a custom budget
  imagectl compress --out ./compressed --max-size-mb 1 --max-edge 1920 *.jpg

  # List available presets
  imagectl presets`,
	}

	rootCmd.AddCommand(newCompressCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("imagectl %s\n", Version)
		},
	}
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
