package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"brevio/web/internal/config"
	"brevio/web/internal/logger"
	"brevio/web/internal/model"
	"brevio/web/internal/network"
	"brevio/web/internal/render"
	"brevio/web/internal/service"
	"brevio/web/internal/store"
	"brevio/web/internal/validator"
)

var (
	// summarizeTimeout bounds the exchange; zero means no timeout.
	summarizeTimeout time.Duration

	// showTranscript prints the transcript after the key points.
	showTranscript bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize a YouTube video",
	Long: `Send the URL to the summarization service and print the result.

Exit status is non-zero when the URL is invalid or the service reports
an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().DurationVar(
		&summarizeTimeout, "timeout", 0,
		"Exchange timeout (default: $BREVIO_API_TIMEOUT, 0 disables)",
	)
	summarizeCmd.Flags().BoolVar(
		&showTranscript, "transcript", false,
		"Include the transcript in text output",
	)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.InitWithWriter(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	videoURL, err := validator.Validate(args[0])
	if err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return errors.New(verr.Message())
		}
		return err
	}

	endpoint := cfg.APIURL
	if apiURL != "" {
		endpoint = apiURL
	}
	timeout := cfg.APITimeout
	if cmd.Flags().Changed("timeout") {
		timeout = summarizeTimeout
	}

	clients, err := network.NewClientFactory(cfg.ProxyURL)
	if err != nil {
		return err
	}
	svc := service.NewSummaryService(service.SummaryServiceConfig{
		Endpoint:  endpoint,
		Timeout:   timeout,
		UserAgent: config.BrevioUserAgent,
	}, clients, service.NewRateLimiter(cfg.APIRateLimit))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	record, err := svc.Summarize(ctx, store.NewMemoryStore(), videoURL)
	if err != nil {
		var xerr *service.ExchangeError
		if !errors.As(err, &xerr) {
			return err
		}
		if outputFormat == "json" {
			_ = outputJSON(cmd.OutOrStdout(), xerr.Record())
		}
		return errors.New(xerr.UserMessage())
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return outputJSON(out, record)
	}
	printSummary(out, record, showTranscript)
	return nil
}

func printSummary(w io.Writer, r *model.SummaryRecord, transcript bool) {
	if r.Title != "" {
		fmt.Fprintln(w, render.Plain(r.Title))
		if r.Duration != "" {
			fmt.Fprintf(w, "Duration: %s\n", render.Plain(r.Duration))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.TrimSpace(render.Plain(r.Summary)))

	fmt.Fprintln(w)
	if len(r.KeyPoints) == 0 {
		fmt.Fprintln(w, "No key points were provided for this video.")
	} else {
		fmt.Fprintln(w, "Key points:")
		for i, p := range r.KeyPoints {
			fmt.Fprintf(w, "  %d. %s\n", i+1, render.Plain(p))
		}
	}

	if transcript && r.Transcript != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Transcript:")
		fmt.Fprintln(w, render.Plain(r.Transcript))
	}
}
