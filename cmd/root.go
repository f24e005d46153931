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
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "linguard",
	Short: "Secure translation service",
	Long: `A secure translation service that screens input for prompt injection
and other threats, detects the source language, and translates text or
PDF documents to English using a Mistral model backend.

Use "linguard serve" to run the HTTP service or
"linguard translate --input file" for a one-shot translation.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (YAML)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
