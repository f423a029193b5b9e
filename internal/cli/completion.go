package cli

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for objstore.

To load completions:

Bash:
  $ source <(objstore completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ objstore completion bash > /etc/bash_completion.d/objstore
  # macOS:
  $ objstore completion bash > $(brew --prefix)/etc/bash_completion.d/objstore

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ objstore completion zsh > "${fpath[1]}/_objstore"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ objstore completion fish | source

  # To load completions for each session, execute once:
  $ objstore completion fish > ~/.config/fish/completions/objstore.fish

PowerShell:
  PS> objstore completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> objstore completion powershell > objstore.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(stdout)
		case "fish":
			return rootCmd.GenFishCompletion(stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
