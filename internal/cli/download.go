package cli

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <remote-path> <local-path>",
	Short: "Download an object to a local file",
	Long: `Download an object to a local file.

Parent directories are created as needed and an existing file is replaced.
The local file is only written once the whole object has been received.`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()
	remotePath, localPath := args[0], args[1]

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	if err := sc.Store.Download(ctx, remotePath, localPath); err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(map[string]string{"path": remotePath, "local_path": localPath})
	}

	out.Success("Downloaded %s to %s", remotePath, localPath)
	return nil
}
