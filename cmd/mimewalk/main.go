package main

import (
	"github.com/spf13/cobra"

	"github.com/emiyakirito/mime4j-go/cmd/mimewalk/cmd"
)

func main() {
	err := cmd.Execute()
	cobra.CheckErr(err)
}
