package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snapmatch",
	Short: "Event photo galleries with selfie face matching",
	Long: `SnapMatch hosts event photo galleries. Photographers upload event photos,
attendees submit a selfie and get back every photo they appear in. Galleries
expire after the photographer's chosen retention window.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
