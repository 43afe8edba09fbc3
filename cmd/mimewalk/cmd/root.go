package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "mimewalk",
	Short: "Walks a MIME message and prints the token it produces at each step",
}

func Execute() error {
	return rootCmd.Execute()
}
