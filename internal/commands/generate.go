package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cheahjs/stable-diffusion-frontend/internal/api"
	"github.com/cheahjs/stable-diffusion-frontend/internal/client"
	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		prompt         string
		negativePrompt string
		steps          int
		guidanceScale  float64
		width          int
		height         int
		seed           int64
		outputDir      string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an image from a text prompt",
		Long: `Submit a generation request to the backend and print the result.

Unset tuning flags use the backend defaults (50 steps, guidance 7.5,
512x512). Width and height must be 512, 768 or 1024.

Examples:
  sdfront generate --prompt "a cat"
  sdfront generate --prompt "a lighthouse at dusk" --width 768 --seed 42 --output ./images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.GenerationRequest{Prompt: prompt}
			flags := cmd.Flags()
			if flags.Changed("negative-prompt") {
				req.NegativePrompt = &negativePrompt
			}
			if flags.Changed("steps") {
				req.NumInferenceSteps = &steps
			}
			if flags.Changed("guidance-scale") {
				req.GuidanceScale = &guidanceScale
			}
			if flags.Changed("width") {
				req.Width = &width
			}
			if flags.Changed("height") {
				req.Height = &height
			}
			if flags.Changed("seed") {
				req.Seed = &seed
			}

			backend := opts.newClient()
			result, err := backend.GenerateImage(cmd.Context(), req, "")
			if err != nil {
				return fmt.Errorf("generating image: %w", err)
			}

			savedPath := ""
			if outputDir != "" && result.HasImage() {
				savedPath, err = saveImage(cmd, backend, outputDir, result.Filename, req.Prompt)
				if err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printGenerationResult(cmd.OutOrStdout(), result, savedPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&prompt, "prompt", "", "Text prompt for image generation (required)")
	flags.StringVar(&negativePrompt, "negative-prompt", "", "Things the image should avoid")
	flags.IntVar(&steps, "steps", models.DefaultInferenceSteps, "Number of denoising steps (1-100)")
	flags.Float64Var(&guidanceScale, "guidance-scale", models.DefaultGuidanceScale, "Guidance scale (0-20)")
	flags.IntVar(&width, "width", models.DefaultDimension, "Image width: 512, 768 or 1024")
	flags.IntVar(&height, "height", models.DefaultDimension, "Image height: 512, 768 or 1024")
	flags.Int64Var(&seed, "seed", 0, "Seed for reproducible generation (default: random)")
	flags.StringVar(&outputDir, "output", "", "Directory to download the generated image into")
	flags.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func saveImage(cmd *cobra.Command, backend *client.Client, dir, filename, prompt string) (string, error) {
	store, err := api.NewImageStore(dir)
	if err != nil {
		return "", err
	}
	if store == nil {
		return "", errors.New("no output directory configured")
	}
	if path := store.GetImagePath(filename); path != "" {
		log.Debug().Str("path", path).Msg("Image already saved, skipping download")
		return path, nil
	}
	data, _, err := backend.FetchImage(cmd.Context(), filename)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", filename, err)
	}
	return store.StoreImageWithPrompt(filename, prompt, data)
}

func printGenerationResult(w io.Writer, result models.GenerationResult, savedPath string) {
	if !result.HasImage() {
		fmt.Fprintf(w, "Generation finished without an image: %s\n", result.Message)
		return
	}
	fmt.Fprintf(w, "Generated %s in %.2fs (seed %d)\n", result.Filename, result.GenerationTime, result.SeedUsed)
	fmt.Fprintf(w, "Image URL: %s\n", result.ImageURL)
	if savedPath != "" {
		fmt.Fprintf(w, "Saved to: %s\n", savedPath)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
