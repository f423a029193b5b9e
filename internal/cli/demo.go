package cli

import (
	"github.com/spf13/cobra"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/demo"
)

var (
	demoSample       string
	demoOut          string
	demoMode         string
	demoCreateSample bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the upload/download/exists/list/delete walkthrough",
	Long: `Run a fixed sequence of operations against the configured bucket:

  1. upload the sample file as hello1.txt
  2. upload the sample file as foo/hello2.txt
  3. download hello1.txt and compare it with the sample
  4. check foo/hello2.txt exists
  5. list the bucket
  6. delete foo/hello2.txt
  7. check foo/hello2.txt no longer exists
  8. list the bucket again

--mode sync awaits each call directly, --mode callback chains each call
through a continuation, and --mode both (the default) runs sync then callback.
The run stops at the first failing step.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoSample, "sample", constants.DemoSamplePath, "local file to upload")
	demoCmd.Flags().StringVar(&demoOut, "out", constants.DemoDownloadPath, "where to download hello1.txt")
	demoCmd.Flags().StringVar(&demoMode, "mode", string(demo.ModeBoth), "sync, callback or both")
	demoCmd.Flags().BoolVar(&demoCreateSample, "create-sample", false, "write a small sample file if --sample does not exist")
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := GetOutput()

	mode, err := demo.ParseMode(demoMode)
	if err != nil {
		return err
	}

	sc, err := NewStoreContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	out.Verbose("Running demo against %s", sc.Describe())

	runner := demo.NewRunner(sc.Store, out, GetLogger(), demo.Options{
		SamplePath:   demoSample,
		DownloadPath: demoOut,
		Mode:         mode,
		CreateSample: demoCreateSample,
	})

	report, runErr := runner.Run(ctx)
	if out.IsJSON() {
		if err := out.JSON(report); err != nil {
			return err
		}
	}
	return runErr
}
