package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"brevio/web/internal/config"
)

var (
	// apiURL overrides the configured summarization endpoint.
	apiURL string

	// outputFormat controls output format (text, json).
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "brevio",
	Short: "Summarize YouTube videos from the command line",
	Long: `brevio checks YouTube URLs and asks the summarization service for a
summary, key points and transcript of the video.

Configuration is read the same way as the web server: BREVIO_CONFIG and
BREVIO_* environment variables, with flags taking precedence.`,
	SilenceUsage: true,
	Version:      config.AppVersion,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&apiURL, "api-url", "",
		"Summarization endpoint (default: $BREVIO_API_URL or "+config.DefaultAPIURL+")",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func outputJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
