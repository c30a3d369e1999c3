// Package cmd implements the tabfix commands: offline access to the table
// parser, validator, repairer, merger and structural recognizer.
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/tabgest/internal/tables"
)

// Viper keys shared by every subcommand.
const (
	keyMinConfidence = "min-confidence"
	keyOutput        = "output"
	keyOCRLanguage   = "ocr-language"
)

// NewRootCommand builds the tabfix command tree. Each call gets its own viper
// instance so commands can be executed repeatedly in one process.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TABFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "tabfix",
		Short: "Validate and repair AI-extracted tables",
		Long: `tabfix runs the table repair engine outside the server.

Every command reads a file path, or standard input when the path is "-",
and writes JSON (default) or YAML to standard output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch format := v.GetString(keyOutput); format {
			case "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.Float64(keyMinConfidence, tables.DefaultMinConfidence, "confidence score a result must reach to be valid")
	flags.StringP(keyOutput, "o", "json", "output format: json or yaml")
	flags.String(keyOCRLanguage, "eng", "tesseract language for image recognition")
	for _, key := range []string{keyMinConfidence, keyOutput, keyOCRLanguage} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", key, err))
		}
	}

	root.AddCommand(
		newParseCommand(v),
		newValidateCommand(v),
		newRepairCommand(v),
		newMergeCommand(v),
		newRecognizeCommand(v),
	)
	return root
}

var errBothStdin = errors.New("only one input may be read from stdin")

func errInvalid(v tables.ValidationResult) error {
	return fmt.Errorf("result is invalid: confidence %.1f, %d issues", v.ConfidenceScore, len(v.Issues))
}

func validator(v *viper.Viper) *tables.Validator {
	return tables.NewValidator(tables.WithMinConfidence(v.GetFloat64(keyMinConfidence)))
}
