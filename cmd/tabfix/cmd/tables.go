package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/tabgest/internal/pipeline"
	"github.com/dgallion1/tabgest/internal/tables"
)

type repairOutput struct {
	Result         tables.ExtractionResult `json:"result" yaml:"result"`
	Validation     tables.ValidationResult `json:"validation" yaml:"validation"`
	TablesRepaired int                     `json:"tables_repaired" yaml:"tables_repaired"`
}

func newParseCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file|->",
		Short: "Recover tables from a raw AI reply",
		Long: `Parse decodes the tables in a raw backend reply, tolerating code fences,
surrounding prose, trailing commas and truncated output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := readResult(cmd, args[0])
			if err != nil {
				return err
			}
			return write(cmd, v, result)
		},
	}
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Score a table set and list its structural issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := readResult(cmd, args[0])
			if err != nil {
				return err
			}
			validation := validator(v).Validate(result)
			if err := write(cmd, v, validation); err != nil {
				return err
			}
			if strict && !validation.IsValid {
				return errInvalid(validation)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the result is invalid")
	return cmd
}

func newRepairCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <file|->",
		Short: "Validate, repair and re-validate a table set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := readResult(cmd, args[0])
			if err != nil {
				return err
			}
			var out repairOutput
			out.Result, out.Validation, out.TablesRepaired = validator(v).ValidateAndRepair(result)
			return write(cmd, v, out)
		},
	}
}

func newMergeCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <ocr-file> <ai-file>",
		Short: "Merge an OCR table set with an AI table set",
		Long: `Merge combines tables pairwise by position. The table with the higher
confidence (the AI side on a tie) keeps its name, headers and row layout. A
cell from the other table replaces the base cell only when it is longer than
the base cell and longer than three characters.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" && args[1] == "-" {
				return errBothStdin
			}
			ocrResult, err := readResult(cmd, args[0])
			if err != nil {
				return err
			}
			aiResult, err := readResult(cmd, args[1])
			if err != nil {
				return err
			}
			merged, _ := tables.MergeResults(ocrResult, aiResult)
			if merged.Summary == "" {
				merged.Summary = pipeline.DefaultSummary
			}
			return write(cmd, v, merged)
		},
	}
}

// readResult leniently parses a file holding either a raw backend reply or
// a serialized ExtractionResult.
func readResult(cmd *cobra.Command, path string) (tables.ExtractionResult, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return tables.ExtractionResult{}, err
	}
	return tables.ParseResult(string(data), pipeline.DefaultSummary), nil
}
