package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshucs12345/sprechen/internal/config"
	"github.com/keshucs12345/sprechen/internal/logging"
)

var version = "dev"

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Sprechen - spoken German practice with an AI tutor",
	Long: `Sprechen runs a push-to-talk German conversation with an AI tutor.

The tutor asks for a topic, takes on a matching role (seller, doctor,
waiter, cinema clerk, colleague) and corrects mistakes in Russian.

Environment:
  DEEPGRAM_API_KEY   speech recognition and Deepgram speech output
  OPENAI_API_KEY     tutor replies and OpenAI speech output
  TUTOR_PASSWORD     access password (default: sprechen)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup("info", nil)
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		logging.Setup(loaded.LogLevel, nil)
		cfg = loaded
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "tutor", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(runCmd, voicesCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fehler: %v\n", err)
		os.Exit(1)
	}
}
