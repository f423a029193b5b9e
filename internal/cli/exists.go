package cli

import (
	"github.com/spf13/cobra"
)

var existsCmd = &cobra.Command{
	Use:   "exists <remote-path>",
	Short: "Check whether an object exists",
	Long: `Check whether an object exists at exactly the given path.

Prints true or false. A missing object is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runExists,
}

func runExists(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()
	remotePath := args[0]

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	ok, err := sc.Store.Exists(ctx, remotePath)
	if err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(map[string]interface{}{"path": remotePath, "exists": ok})
	}

	out.Println(ok)
	return nil
}
