package cli

import (
	"github.com/spf13/cobra"

	"github.com/charliek/objstore/internal/config"
	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify configuration and connectivity",
	Long: `Verify that objstore is properly configured.

This command checks:
- Configuration file exists and is valid
- The configured backend can be opened
- The bucket exists and is accessible
- Objects can be listed`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()
	allOK := true

	out.Println("Checking objstore configuration...")
	out.Println()

	// Check config file
	configPath := config.ConfigPath(cfgFile)
	out.Printf("Config file (%s): ", configPath)
	loaded, err := config.Load(cfgFile)
	if err != nil {
		if !config.Exists(cfgFile) {
			out.Println("MISSING")
			out.Printf("  Create %s with at least 'backend' and 'bucket'\n", configPath)
		} else {
			out.Println("INVALID")
			out.Printf("  Error: %v\n", err)
		}
		return domain.Errorf(domain.ErrCheckFailed, "configuration check failed")
	}
	out.Println("OK")
	out.Verbose("  %s", loaded.String())

	if err := initLogger(&loaded.Log); err != nil {
		return err
	}

	// Check backend selection
	out.Printf("Backend: ")
	out.Println(loaded.Storage.Backend)

	// Check client construction
	out.Printf("Client: ")
	sc, err := NewStoreContext(ctx, loaded)
	if err != nil {
		out.Println("FAILED")
		out.Printf("  Error: %v\n", err)
		return domain.Errorf(domain.ErrCheckFailed, "could not open %s backend", loaded.Storage.Backend)
	}
	defer sc.Close()
	out.Println(sc.Describe())

	// Check bucket
	out.Printf("Bucket access: ")
	exists, err := storage.CheckBucket(ctx, sc.Backend)
	switch {
	case err != nil:
		out.Println("FAILED")
		out.Printf("  Error: %v\n", err)
		allOK = false
	case !exists:
		out.Println("NOT FOUND")
		out.Printf("  Bucket %q does not exist or is not visible to these credentials\n", loaded.Storage.Bucket)
		allOK = false
	default:
		out.Println("OK")
	}

	// Check listing through the facade
	out.Printf("List objects: ")
	objects, err := sc.Store.List(ctx)
	if err != nil {
		out.Println("FAILED")
		out.Printf("  Error: %v\n", err)
		allOK = false
	} else {
		out.Printf("OK (%d objects)\n", len(objects))
	}

	out.Println()
	if !allOK {
		return domain.Errorf(domain.ErrCheckFailed, "some checks failed")
	}

	out.Success("All checks passed!")
	return nil
}
