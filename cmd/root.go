package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/config"
	"github.com/PabloViniegra/how-are-u/internal/logging"
)

var (
	captureDir string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "how-are-u",
	Short: "Facial beauty analysis from the command line and the browser",
	Long: `How are u uploads a face photo to the beauty analysis API and shows
the resulting scores, explanation and recommendations.

Use "analyze" to score an image, "summary" and "list" to browse earlier
analyses, and "serve" to start the web interface.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from LOG_FORMAT or text)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	format := logFormat
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	logging.Setup(os.Stderr, level, format)
}

// loadClient loads the configuration and connects an API client to it.
func loadClient() (*config.Config, *beautyapi.Client, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := beautyapi.New(cfg.API.URL, cfg.API.Key,
		beautyapi.WithTimeout(cfg.API.Timeout),
		beautyapi.WithCaptureDir(captureDir),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return cfg, client, nil
}
