package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medcp/medcp/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the medcp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("medcp", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
