package cli

import (
	"github.com/spf13/cobra"

	objio "github.com/charliek/objstore/internal/io"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> <remote-path>",
	Short: "Upload a local file to the bucket",
	Long: `Upload a local file to the bucket under the given remote path.

An existing object at that path is replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()
	localPath, remotePath := args[0], args[1]

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	meta, err := sc.Store.Upload(ctx, localPath, remotePath)
	if err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(meta)
	}

	out.Success("Uploaded %s to %s/%s (%s)", localPath, sc.Describe(), meta.Path, objio.FormatSize(meta.Size))
	return nil
}
