package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the spectra build version and the Go version used to build it.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("spectra version: unknown")
				return
			}

			cmd.Println("spectra version\t", info.Main.Version)
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
