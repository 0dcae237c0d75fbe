// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyan-tools/cyan/internal/macho"
)

// newDepsCommand creates the `cyan deps` command.
func newDepsCommand(app *App) *cobra.Command {
	var rewritable bool

	cmd := &cobra.Command{
		Use:   "deps <binary>",
		Short: "Show the dependencies of a Mach-O binary",
		Long: `Show the architectures, install name, dependency load commands, rpaths,
encryption state and entitlements of a Mach-O binary.

With --rewritable only the references inject would consider rewriting are
listed: those starting with /Library/, @rpath or @executable_path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector := macho.NewInspector()
			if rewritable {
				refs, err := inspector.ListReferences(cmd.Context(), args[0])
				if err != nil {
					return app.fail(err)
				}
				for _, r := range refs {
					fmt.Fprintln(app.stdout, r)
				}
				return nil
			}

			desc, err := inspector.Describe(cmd.Context(), args[0])
			if err != nil {
				return app.fail(err)
			}
			printDescription(app.stdout, args[0], desc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rewritable, "rewritable", false, "only list references inject may rewrite")

	return cmd
}

func printDescription(w io.Writer, bin string, d *macho.Description) {
	fmt.Fprintln(w, TitleStyle.Render(bin))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("arch:"), strings.Join(d.Arches, ", "))
	if d.InstallName != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("install name:"), CmdStyle.Render(d.InstallName))
	}
	if d.Encrypted {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("encrypted:"), WarningStyle.Render("yes (cryptid 1)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, labelStyle.Render("loads:"))
	if len(d.Loads) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none)"))
	}
	for _, l := range d.Loads {
		ref := l.Reference.String()
		if l.Reference.Rewritable() {
			ref = CmdStyle.Render(ref)
		}
		fmt.Fprintf(w, "  %-8s %s\n", l.Kind, ref)
	}

	if len(d.Rpaths) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("rpaths:"))
		for _, p := range d.Rpaths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}

	if len(d.Entitlements) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("entitlements:"))
		for _, k := range slices.Sorted(maps.Keys(d.Entitlements)) {
			fmt.Fprintf(w, "  %s = %v\n", k, d.Entitlements[k])
		}
	}
}
