package cli

import (
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/composeviz/pkg/pipeline"
)

// completionGenerators maps each supported shell to its script generator.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(completionGenerators))
	for s := range completionGenerators {
		shells = append(shells, s)
	}
	slices.Sort(shells)

	return &cobra.Command{
		Use:   "completion [bash|fish|powershell|zsh]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for composeviz.

Bash:
  $ source <(composeviz completion bash)

Zsh:
  $ composeviz completion zsh > "${fpath[1]}/_composeviz"

Fish:
  $ composeviz completion fish > ~/.config/fish/completions/composeviz.fish

PowerShell:
  PS> composeviz completion powershell | Out-String | Invoke-Expression

Start a new shell for the completions to take effect.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), os.Stdout)
		},
	}
}

// registerRenderCompletions completes the enumerated render flags.
func registerRenderCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output-format", cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp))

	formats := make([]string, 0, len(pipeline.ValidFormats))
	for f := range pipeline.ValidFormats {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	_ = cmd.RegisterFlagCompletionFunc("graphviz-output-format", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
}
