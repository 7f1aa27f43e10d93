package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"brevio/web/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <url>",
	Short: "Check whether a URL is an accepted YouTube video URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

type validateResult struct {
	URL   string `json:"url"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	url, err := validator.Validate(args[0])

	result := validateResult{URL: args[0], Valid: err == nil}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		result.Error = verr.Message()
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		if jerr := outputJSON(out, result); jerr != nil {
			return jerr
		}
	default:
		if result.Valid {
			fmt.Fprintf(out, "valid: %s\n", url)
		} else {
			fmt.Fprintf(out, "invalid: %s\n", result.Error)
		}
	}
	return err
}
