package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheahjs/stable-diffusion-frontend/internal/api"
	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

func newGalleryCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON      bool
		showPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List generated images, newest first",
		Long: `List the backend's generated images, newest first.

With --prompts, images already saved into the images directory show the
prompt recorded next to them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := opts.newClient().ListImages(cmd.Context(), "")
			if err != nil {
				return fmt.Errorf("listing images: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), models.ImageList{Images: images})
			}

			var prompts map[string]string
			if showPrompts {
				store, err := api.NewImageStore(opts.cfg.ImagesDir)
				if err != nil {
					return err
				}
				prompts = savedPrompts(store, images)
			}
			return printGallery(cmd.OutOrStdout(), images, prompts)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	cmd.Flags().BoolVar(&showPrompts, "prompts", false, "Show prompts of images saved in the images directory")
	return cmd
}

func savedPrompts(store *api.ImageStore, images []models.ImageListEntry) map[string]string {
	prompts := make(map[string]string)
	if store == nil {
		return prompts
	}
	for _, img := range images {
		if prompt, ok := store.GetPrompt(img.Filename); ok {
			prompts[img.Filename] = strings.Join(strings.Fields(prompt), " ")
		}
	}
	return prompts
}

// printGallery writes the gallery table. A nil prompts map omits the prompt column.
func printGallery(w io.Writer, images []models.ImageListEntry, prompts map[string]string) error {
	if len(images) == 0 {
		fmt.Fprintln(w, "No images. Generate your first one with: sdfront generate --prompt \"...\"")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if prompts == nil {
		fmt.Fprintln(tw, "FILENAME\tCREATED\tURL")
	} else {
		fmt.Fprintln(tw, "FILENAME\tCREATED\tURL\tPROMPT")
	}
	for _, img := range images {
		if prompts == nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", img.Filename, formatCreated(img.Created), img.URL)
			continue
		}
		prompt, ok := prompts[img.Filename]
		if !ok {
			prompt = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", img.Filename, formatCreated(img.Created), img.URL, prompt)
	}
	return tw.Flush()
}

func formatCreated(created int64) string {
	if created <= 0 {
		return "-"
	}
	return time.Unix(created, 0).UTC().Format(time.RFC3339)
}
