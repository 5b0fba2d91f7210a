package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const completionHelp = `Generate a shell completion script for refgraph.

  bash:       source <(refgraph completion bash)
  zsh:        refgraph completion zsh > "${fpath[1]}/_refgraph"
  fish:       refgraph completion fish | source
  powershell: refgraph completion powershell | Out-String | Invoke-Expression

Query kinds are completed for fetch, render and explore.`

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		Long:                  completionHelp,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}
