package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cheahjs/stable-diffusion-frontend/internal/api"
	"github.com/cheahjs/stable-diffusion-frontend/internal/cache"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listenAddr  string
		publicURL   string
		proxyImages bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the front-end gateway",
		Long: `Run an HTTP gateway in front of the backend. It exposes the backend's
/api/v1 routes with normalized responses and serves images through an
in-memory cache.

Examples:
  sdfront serve
  sdfront serve --listen :9000 --base-url http://gpu-box:8000
  sdfront serve --public-url https://studio.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("public-url") {
				cfg.PublicURL = publicURL
			}
			if cmd.Flags().Changed("proxy-images") {
				cfg.ProxyImages = proxyImages
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts.cfg = cfg
			return runServer(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default from config, :8080)")
	cmd.Flags().StringVar(&publicURL, "public-url", "", "Public origin used in image URLs (default: request host)")
	cmd.Flags().BoolVar(&proxyImages, "proxy-images", true, "Serve images through the gateway cache")
	return cmd
}

func runServer(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	backend := opts.newClient()
	imageCache := cache.NewImageCache(cfg.Cache.Expiry, cfg.Cache.MaxSizeMB)
	imageManager := api.NewImageManager(backend, imageCache, cfg.Cache.CleanupInterval)
	defer imageManager.Close()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(backend, imageManager, cfg.PublicURL, cfg.ProxyImages, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("backend", backend.BaseURL()).
			Bool("proxy_images", cfg.ProxyImages).
			Msg("Server is running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
