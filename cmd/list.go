package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thiagokokada/interdiff-go/internal/interdiff"
)

func newListCommand(c *cli) *cobra.Command {
	var (
		from, to string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "list --from REV --to REV",
		Short: "Print the commit comparison without the interactive view",
		Long: `Print the aligned commits of two revisions of a branch, one per line.

Rows are marked "+" when only the new side has the commit, "-" when only the
old side has it, "~" when its content changed and "✎" when its message also
changed. Unchanged rows are hidden unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			shutdown, err := c.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdown()

			svc, err := c.openRepository()
			if err != nil {
				return err
			}
			diff, err := interdiff.Calculate(cmd.Context(), svc, from, to)
			if err != nil {
				return err
			}
			printBranchDiff(cmd.OutOrStdout(), diff, all)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "old revision of the branch")
	cmd.Flags().StringVar(&to, "to", "", "new revision of the branch")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include unchanged commits")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

var (
	addedColor    = color.New(color.FgGreen)
	removedColor  = color.New(color.FgRed)
	modifiedColor = color.New(color.FgYellow)
	rewordColor   = color.New(color.FgCyan)
	mutedColor    = color.New(color.Faint)
	shaColor      = color.New(color.FgMagenta)
)

func printBranchDiff(w io.Writer, diff interdiff.BranchDiff, all bool) {
	shown := 0
	for _, row := range diff {
		if !all && !row.HasChanges() {
			continue
		}
		shown++
		mark, c := listMark(row)
		c.Fprint(w, mark)
		fmt.Fprint(w, " ")
		shaColor.Fprint(w, listSHA(row))
		fmt.Fprintf(w, " %s", listSubject(row))
		if s := row.Stats; s.ChangedFiles > 0 {
			mutedColor.Fprintf(w, " (%d files, +%d, -%d)", s.ChangedFiles, s.Additions, s.Removals)
		}
		fmt.Fprintln(w)
	}
	mutedColor.Fprintf(w, "%d of %d commits shown\n", shown, len(diff))
}

func listMark(row interdiff.CommitDiff) (string, *color.Color) {
	switch {
	case !row.HasChanges():
		return "=", mutedColor
	case row.From == nil:
		return "+", addedColor
	case row.To == nil:
		return "-", removedColor
	case row.From.Message != row.To.Message:
		return "✎", rewordColor
	}
	return "~", modifiedColor
}

func listSHA(row interdiff.CommitDiff) string {
	short := func(sha string) string {
		if len(sha) > 8 {
			return sha[:8]
		}
		return sha
	}
	switch {
	case row.From != nil && row.To != nil && row.From.SHA != row.To.SHA:
		return short(row.From.SHA) + ".." + short(row.To.SHA)
	case row.To != nil:
		return short(row.To.SHA)
	case row.From != nil:
		return short(row.From.SHA)
	}
	return ""
}

func listSubject(row interdiff.CommitDiff) string {
	if row.To != nil {
		return row.To.Subject()
	}
	if row.From != nil {
		return row.From.Subject()
	}
	return ""
}
