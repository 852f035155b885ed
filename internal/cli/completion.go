package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/rows"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowlens.

Bash:
  $ source <(flowlens completion bash)

Zsh:
  $ flowlens completion zsh > "${fpath[1]}/_flowlens"

Fish:
  $ flowlens completion fish > ~/.config/fish/completions/flowlens.fish

PowerShell:
  PS> flowlens completion powershell | Out-String | Invoke-Expression

Column flags such as --origin-column complete from the header of the row
file given on the command line.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// columnFlags are completed from the row file header.
var columnFlags = []string{
	"origin-column", "destination-column", "weight-column",
	"origin-lat", "origin-lng", "dest-lat", "dest-lng", "color-by",
}

// registerColumnCompletion completes the column flags of cmd with the
// columns of the last positional argument.
func registerColumnCompletion(cmd *cobra.Command) {
	complete := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ds, err := rows.ReadFile(args[len(args)-1])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return ds.Columns, cobra.ShellCompDirectiveNoFileComp
	}
	for _, name := range columnFlags {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, complete)
		}
	}
}

// completeViewThenFile completes the view name of `project`, then files.
func completeViewThenFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return viewNames(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveDefault
}
