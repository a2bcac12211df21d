package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimcheck/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the analysis over HTTP:

  GET  /                     service info
  GET  /health               liveness
  GET  /health/provider      provider reachability
  POST /api/text-analysis    {"text": "...", "source": "text|video"}
  POST /api/transcript       {"videoId": "...", "vtt": "..." | "captionsUrl": "..."}
  POST /api/video-analysis   {"videoId": "...", "segments": [...]}

Example:
  OPENAI_API_KEY=sk-... claimcheck serve --addr :8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.allowed_origins", serveCmd.Flags().Lookup("allowed-origins"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// captionsUrl comes from remote callers; keep it off internal networks
	fetcher := a.fetcher
	if !cfg.HTTP.AllowPrivateHosts {
		fetcher = fetcher.PublicOnly()
	}

	srv := server.New(cfg.Server, a.pipeline, a.provider, fetcher, logger, Version)
	return srv.Run(ctx)
}
