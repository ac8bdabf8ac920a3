package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/warden"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of warden",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("warden version %s\n", strings.TrimSpace(warden.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
