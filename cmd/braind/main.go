package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "braind",
	Short: "braind runs user automation workflows and their queued actions",
	Long: `braind is a workflow automation daemon: users register workflows
mapping a trigger (daily schedule, cron, or query match) to an ordered list
of actions, and braind matches events against them, renders payloads, and
executes queued actions in the background.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the braind version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("braind", version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, mcpCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
