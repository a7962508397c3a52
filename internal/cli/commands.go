package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pathguard/internal/facade"
	"pathguard/internal/resolve"
)

func (a *app) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [segments...]",
		Short: "Resolve path segments to one absolute path",
		Long: `Resolve joins the segments right to left until an absolute path is formed,
filling in the current working directory when none is absolute.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			resolved, err := p.Resolve(args...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		},
	}
}

func (a *app) newCheckCmd(use, short string, pick func(*facade.Path) func(string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PATH",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			resolved, err := pick(p)(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		},
	}
}

func (a *app) newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create one directory below an existing, valid parent",
		Long:  `Mkdir never creates missing ancestors. The directory is created with mode 0755.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			line, err := p.Mkdir(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}

func (a *app) newBatchCmd(use, short string, pick func(*facade.Path) func([]string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PATH...",
		Short: short,
		Long: short + `.

Every path is validated before anything is changed. Paths are then processed
in order and the command stops at the first failure; earlier paths are not
restored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			out, err := pick(p)(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// flavorFor picks the POSIX flavor on request, the facade's own otherwise
func flavorFor(p *facade.Path, posix bool) resolve.Flavor {
	if posix {
		return p.Posix()
	}
	return p.Flavor
}

func (a *app) newParseCmd() *cobra.Command {
	var posix bool
	cmd := &cobra.Command{
		Use:   "parse PATH",
		Short: "Split a path into root, dir, base, ext and name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(flavorFor(p, posix).Parse(args[0]), "", "  ")
			if err != nil {
				return &runtimeError{err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&posix, "posix", false, "use POSIX semantics regardless of the running OS")
	return cmd
}

func (a *app) newRelativeCmd() *cobra.Command {
	var posix bool
	cmd := &cobra.Command{
		Use:   "relative FROM TO",
		Short: "Print the relative path from FROM to TO",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.facade()
			if err != nil {
				return err
			}
			rel, err := flavorFor(p, posix).Relative(args[0], args[1])
			if err != nil {
				return &runtimeError{err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), rel)
			return nil
		},
	}
	cmd.Flags().BoolVar(&posix, "posix", false, "use POSIX semantics regardless of the running OS")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version works even when the configuration is broken
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pathguard version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built: %s\n", date)
		},
	}
}

