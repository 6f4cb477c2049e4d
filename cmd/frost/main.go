package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/tui"
)

var version = "dev"

var (
	cfgFile string
	askText string
	rootCmd = &cobra.Command{
		Use:   "frost",
		Short: "FROST - AI-powered cryo sample inventory in your terminal",
		Long: `FROST is a terminal assistant for liquid-nitrogen sample inventories.
Ask it where a cell line is stored, stage adds, moves, and takeouts as a
reviewable plan, and commit the plan atomically to a YAML inventory file.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Load .env if present (optional, warn if malformed)
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
			}

			cfg, err := core.LoadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
				os.Exit(1)
			}

			// First run creates config.json after Viper's initial read, so
			// re-read before applying overrides.
			_ = viper.ReadInConfig()
			applyOverrides(&cfg)

			// One-shot mode: run a single request without the TUI
			if askText != "" {
				if err := runOnce(cfg, askText); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				return
			}

			// First interactive run: ask who is operating the freezer
			if cfg.Operator == "" {
				if err := runSetup(&cfg); err != nil {
					fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
					os.Exit(1)
				}
			}

			if err := tui.Run(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error running FROST: %v\n", err)
				os.Exit(1)
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .frost/config.json)")
	rootCmd.Flags().StringVarP(&askText, "ask", "a", "", "Run a single request and print the answer")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(core.FrostFolderName)
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("frost")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// applyOverrides layers environment variables over the file config, so a
// key never has to live on disk. FROST_API_KEY, FROST_MODEL, and friends
// win over config.json.
func applyOverrides(cfg *core.AppConfig) {
	if v := viper.GetString("api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("operator"); v != "" {
		cfg.Operator = v
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
