package cli

import (
	"github.com/spf13/cobra"
)

var (
	listPrefix string
	listLong   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List objects in the bucket",
	Long: `List every object in the bucket, or only those under --prefix.

All result pages are fetched before anything is printed.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listPrefix, "prefix", "p", "", "only list objects whose path starts with this prefix")
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "show size and update time")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	objects, err := sc.Store.ListPrefix(ctx, listPrefix)
	if err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(objects)
	}

	if len(objects) == 0 {
		out.Verbose("No objects found in %s", sc.Describe())
		return nil
	}

	out.PrintObjects(objects, listLong)
	return nil
}
