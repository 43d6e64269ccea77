package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medcp",
	Short: "Medical Context Protocol server",
	Long: "MedCP exposes a biomedical knowledge graph and an electronic health\n" +
		"records database as read-only MCP tools. Every inbound Cypher or SQL\n" +
		"query is validated before it reaches a live database.",
}

func Execute() error {
	return rootCmd.Execute()
}
