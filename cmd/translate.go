/*
Copyright © 2026 Oleg Karpov

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okarpov/linguard/internal/pipeline"
)

var (
	inputFile  string
	outputFile string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a text or PDF file to English",
	Long: `Run a single file through the translation pipeline and print the
English text. PDF input goes through document extraction first; anything
else is treated as plain text.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		p := buildPipeline(cfg, logger)
		ctx := context.Background()

		var result *pipeline.Result
		if strings.EqualFold(filepath.Ext(inputFile), ".pdf") {
			result, err = p.ProcessDocument(ctx, filepath.Base(inputFile), data)
		} else {
			result, err = p.ProcessText(ctx, string(data))
		}
		if err != nil {
			return err
		}

		if !result.Success {
			return fmt.Errorf("%s", result.Message)
		}

		fmt.Fprintln(os.Stderr, result.Message)

		if outputFile != "" {
			return os.WriteFile(outputFile, []byte(result.TranslatedText), 0o644)
		}
		fmt.Println(result.TranslatedText)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (stdout when omitted)")
	_ = translateCmd.MarkFlagRequired("input")
}
