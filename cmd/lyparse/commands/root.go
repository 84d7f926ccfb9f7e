package commands

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-lilypond-go/config"
)

var (
	// Global flags
	configPath string
	language   string
	verbose    bool

	globalConfig  *config.Config
	configLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "lyparse",
	Short: "Parse LilyPond notation into structured scores",
	Long: `lyparse - turn LilyPond source into staves, voices, notes and measures.

Configuration is read from --config (YAML) and overlaid with environment
variables; a .env file in the working directory is loaded first.

  OPENAI_API_KEY, GEMINI_API_KEY   provider keys for 'draft'
  LYPARSE_STORE_DIR                score library directory
  LYPARSE_LANGUAGE                 note-name language before \language
  SENTRY_DSN                       enables tracing of parses and drafts

Examples:
  lyparse parse -f json etude.ly
  lyparse query '.staves[0].measures | length' etude.ly
  lyparse inspect etude.ly
  lyparse store add etude.ly
  lyparse draft "a four bar waltz in G"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	defer sentry.Flush(2 * time.Second)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "note-name language (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(parseCmd, queryCmd, schemaCmd, inspectCmd, storeCmd, draftCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && verbose {
		log.Printf("⚠️  Could not load .env file: %v", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			TracesSampleRate: 1.0,
		}); err != nil {
			log.Printf("⚠️  Sentry init failed: %v", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// noteLanguage resolves the --language flag against the config default
func noteLanguage() string {
	if language != "" {
		return language
	}
	if cfg, err := GetConfig(); err == nil && cfg.DefaultLanguage != "" {
		return cfg.DefaultLanguage
	}
	return ""
}

func printVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
