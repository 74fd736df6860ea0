package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/themetree/internal/colour"
)

func newPaletteCmd() *cobra.Command {
	var branch string
	var swatches bool

	cmd := &cobra.Command{
		Use:   "palette [name]",
		Short: "List the palette entries",
		Long: `List the twelve palette entries, or show the one matching name.

Names are matched case-insensitively, falling back to a fuzzy match, so
"fchs" finds Fuchsia. With --branch the entry selected for that branch name
is shown instead.

Examples:
  themetree palette
  themetree palette ocean
  themetree palette --branch main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := colour.Default()
			if !cmd.Flags().Changed("swatches") {
				swatches = isTerminal(cmd)
			}

			switch {
			case cmd.Flags().Changed("branch"):
				index := p.IndexFor(branch)
				fmt.Fprintf(cmd.OutOrStdout(), "Branch %s -> %d\n\n", branch, index)
				fmt.Fprint(cmd.OutOrStdout(), paletteTable(colour.Palette{p.At(index)}, []int{index}, swatches).Render())
				return nil
			case len(args) == 1:
				entry, ok := p.Find(args[0])
				if !ok {
					return fmt.Errorf("no palette entry matches %q", args[0])
				}
				fmt.Fprint(cmd.OutOrStdout(), paletteTable(colour.Palette{entry}, []int{indexOf(p, entry)}, swatches).Render())
				return nil
			}

			indexes := make([]int, p.Len())
			for i := range indexes {
				indexes[i] = i
			}
			fmt.Fprint(cmd.OutOrStdout(), paletteTable(p, indexes, swatches).Render())
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "show the entry selected for a branch name")
	cmd.Flags().BoolVar(&swatches, "swatches", false, "render colour swatches (default: when writing to a terminal)")
	return cmd
}

func paletteTable(entries colour.Palette, indexes []int, swatches bool) *Table {
	headers := []string{"Index", "Name", "Primary", "Dark", "Foreground", "Contrast"}
	if swatches {
		headers = append(headers, "Swatch")
	}
	table := NewTable(headers...)
	for i, e := range entries {
		contrast := "-"
		if c, err := e.Contrast(); err == nil {
			contrast = fmt.Sprintf("%.1f:1", c)
		}
		row := []string{strconv.Itoa(indexes[i]), e.Name, e.Primary, e.PrimaryDark, e.Foreground, contrast}
		if swatches {
			row = append(row, swatch(e))
		}
		table.AddRow(row...)
	}
	return table
}

// swatch renders the primary and dark colours with the foreground on top.
func swatch(e colour.Entry) string {
	fg := lipgloss.Color(e.Foreground)
	primary := lipgloss.NewStyle().Background(lipgloss.Color(e.Primary)).Foreground(fg)
	dark := lipgloss.NewStyle().Background(lipgloss.Color(e.PrimaryDark)).Foreground(fg)
	return primary.Render(" Aa ") + dark.Render(" Aa ")
}

func indexOf(p colour.Palette, e colour.Entry) int {
	for i := range p.Len() {
		if p.At(i) == e {
			return i
		}
	}
	return -1
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
