package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/storage"
)

var encodeCopy bool

var encodeCmd = &cobra.Command{
	Use:   "encode <path>",
	Short: "Base64 encode a service account JSON file",
	Long: `Base64 encode a service account JSON file for use in configuration.

The file is checked to be a GCS credential before it is encoded.
The encoded string can be used as the gcs_credentials value in your config file.
Use --copy to copy the result to your clipboard.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().BoolVar(&encodeCopy, "copy", false, "copy to clipboard")
}

func runEncode(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := GetOutput()

	encoded, err := encodeServiceAccountFile(path)
	if err != nil {
		return err
	}

	if encodeCopy {
		if err := copyToClipboard(encoded); err != nil {
			out.Warn("Failed to copy to clipboard: %v", err)
			out.Println("Falling back to stdout:")
			out.Println(encoded)
		} else {
			out.Println("Copied to clipboard.")
		}
	} else {
		out.Println(encoded)
	}
	return nil
}

// clipboardTimeout is the maximum time to wait for clipboard operations
const clipboardTimeout = 5 * time.Second

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "pbcopy")
	case "linux":
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.CommandContext(ctx, "xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (install xclip or xsel)")
		}
	case "windows":
		cmd = exec.CommandContext(ctx, "clip")
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// encodeServiceAccountFile reads, validates and base64 encodes a credential file
func encodeServiceAccountFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.Errorf(domain.ErrNotFound, "credential file not found: %s", path)
		}
		return "", domain.Errorf(domain.ErrInvalidArgs, "failed to read file: %v", err)
	}

	if err := storage.ValidateGCSCredentials(data); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
