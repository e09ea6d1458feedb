package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <filename>",
		Short: "Download a generated image",
		Long: `Download an image by filename into a local directory. A backend path such
as images/cat1.png is reduced to its filename.

Examples:
  sdfront download cat1.png
  sdfront download cat1.png --output ./images`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := outputDir
			if dir == "" {
				dir = opts.cfg.ImagesDir
			}
			filename, ok := normalize.ExtractFilename(args[0])
			if !ok {
				return fmt.Errorf("no filename in %q", args[0])
			}
			path, err := saveImage(cmd, opts.newClient(), dir, filename, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Directory to save into (default from config: generated-images)")
	return cmd
}
