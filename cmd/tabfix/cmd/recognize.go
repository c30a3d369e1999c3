package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/tabgest/internal/ocr"
	"github.com/dgallion1/tabgest/internal/parser"
	"github.com/dgallion1/tabgest/internal/pipeline"
	"github.com/dgallion1/tabgest/internal/tables"
)

func newRecognizeCommand(v *viper.Viper) *cobra.Command {
	var (
		name     string
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "recognize <file|->",
		Short: "Recover tables from a document without AI",
		Long: `Recognize reads CSV, HTML, Markdown, DOCX, PDF and image files and returns
the tables found in their structure. Images need a build with -tags ocr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if filename == "-" {
				if name == "" {
					return errors.New("--name is required when reading stdin")
				}
				filename = name
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			registry := &parser.Registry{Options: ocr.DefaultOptions}
			if client, err := ocr.New(v.GetString(keyOCRLanguage)); err == nil {
				defer client.Close()
				registry.OCR = client
			}
			p, err := registry.ForFile(filename)
			if err != nil {
				return err
			}
			found, err := p.Parse(bytes.NewReader(data), filename)
			if err != nil {
				return fmt.Errorf("recognize %s: %w", filename, err)
			}
			result := tables.ExtractionResult{Tables: found, Summary: pipeline.DefaultSummary}
			if !validate {
				return write(cmd, v, result)
			}
			return write(cmd, v, struct {
				Result     tables.ExtractionResult `json:"result" yaml:"result"`
				Validation tables.ValidationResult `json:"validation" yaml:"validation"`
			}{result, validator(v).Validate(result)})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filename used to pick the parser when reading stdin")
	cmd.Flags().BoolVar(&validate, "validate", false, "include a validation report")
	return cmd
}
