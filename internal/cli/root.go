// Package cli implements the deskctl command line.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "Support desk operator tool",
	Long:  "deskctl runs the support desk menu in-process and mints API tokens for operators.",

	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}
