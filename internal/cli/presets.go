package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"image-compressor/internal/preset"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in compression presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBUDGET\tMAX EDGE\tQUALITY\tSERVER TARGET\tCEILING")

			for _, name := range preset.Names() {
				p, err := preset.Get(name)
				if err != nil {
					return err
				}

				ceiling := "-"
				if max, ok := preset.MaxFileSize[name]; ok {
					ceiling = preset.FormatFileSize(max)
				}

				fmt.Fprintf(w, "%s\t%s\t%dpx\t%.0f%%\t%dx%d %s (%s)\t%s\n",
					name,
					preset.FormatFileSize(int64(p.Client.MaxSizeMB*1024*1024)),
					p.Client.MaxWidthOrHeight,
					p.Client.InitialQuality*100,
					p.Server.Width, p.Server.Height, p.Server.Format, p.Server.Fit,
					ceiling,
				)
			}

			return w.Flush()
		},
	}
}
