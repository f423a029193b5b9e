package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/ui"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <remote-path>",
	Aliases: []string{"rm"},
	Short:   "Delete an object from the bucket",
	Long: `Delete an object from the bucket.

Deleting an object that does not exist succeeds.

In non-interactive mode (scripts, CI/CD), use --yes to confirm.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()
	remotePath := args[0]

	// Reject bad paths before prompting
	if _, err := domain.NewObjectRef(remotePath); err != nil {
		return err
	}

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	// Confirm deletion
	if !deleteYes {
		if !ui.CanPrompt() {
			// In non-interactive mode, require explicit flag
			return domain.Errorf(domain.ErrInvalidArgs, "delete requires confirmation; use --yes in non-interactive mode")
		}
		prompt := ui.NewPrompt()
		confirmed, err := prompt.Confirm(fmt.Sprintf("Delete %s from %s?", remotePath, sc.Describe()), false)
		if err != nil {
			return err
		}
		if !confirmed {
			return domain.Errorf(domain.ErrUserCancelled, "delete of %s aborted", remotePath)
		}
	}

	if err := sc.Store.Delete(ctx, remotePath); err != nil {
		return err
	}

	if out.IsJSON() {
		return out.JSON(map[string]interface{}{"path": remotePath, "deleted": true})
	}

	out.Success("Deleted %s", remotePath)
	return nil
}
