package cli

import (
	"github.com/spf13/cobra"

	"github.com/charliek/objstore/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := GetOutput()
		if out.IsJSON() {
			return out.JSON(map[string]string{
				"version":    version.Version,
				"git_commit": version.GitCommit,
				"build_date": version.BuildDate,
			})
		}
		out.Println("objstore " + version.Full())
		return nil
	},
}
