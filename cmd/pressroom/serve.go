package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/config"
	"github.com/pressroom/pressroom/internal/home"
	"github.com/pressroom/pressroom/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pressroom server",
	Long: `Start the Pressroom HTTP server.

The server exposes the full article pipeline: research framework, PDF
research upload, storyline, drafting, polish, decomposition, image
generation, final assembly, and WeChat draft publishing. Generated
images are hosted under /files/.

Configuration is hot-reloaded: edit the config file while the server
runs and backend credentials and retry budgets follow.

Examples:
  pressroom serve                    # Start on default port 8080
  pressroom serve --port 3000        # Start on custom port
  pressroom serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Blocks until shutdown
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
