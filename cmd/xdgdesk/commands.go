package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"xdgdesk/cmd/xdgdesk/cli"
	"xdgdesk/internal/config"
	"xdgdesk/internal/errors"
	"xdgdesk/pkg/icon"
	"xdgdesk/pkg/menu"
)

// newMenuCmd prints the application menu tree
func newMenuCmd(a *app) *cobra.Command {
	var showIcons bool

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the application menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resolve func(string) (string, bool)
			if showIcons {
				resolve = a.resolveIcon
			}
			a.Index().Print(cli.NewTreePrinter(cmd.OutOrStdout(), a.styles, resolve))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showIcons, "icons", "i", false, "resolve and show icon files")
	return cmd
}

// newMimeCmd matches files to MIME types and their applications
func newMimeCmd(a *app) *cobra.Command {
	var showExec bool

	cmd := &cobra.Command{
		Use:   "mime FILE...",
		Short: "Show the MIME type and applications for files",
		Long: `Match each file name against the glob database and list the default
and candidate applications. With --exec the command lines that would open the
files are printed; nothing is started.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			globs, err := a.Globs()
			if err != nil {
				return errors.Wrapf(err, "cannot load glob database %s", a.cfg.GlobDatabase)
			}
			ix := a.Index()
			out := cmd.OutOrStdout()

			for _, path := range args {
				mime, ok := globs.MatchFilename(path)
				if !ok {
					a.styles.PrintWarning(out, "no MIME type for "+path)
					continue
				}
				a.styles.PrintHeader(out, path)
				a.styles.PrintField(out, "type", mime)

				assoc, ok := ix.Association(mime)
				if !ok || (!assoc.HasDefault() && len(assoc.All) == 0) {
					a.styles.PrintField(out, "default", "(none)")
					continue
				}
				target := assoc.Default
				if assoc.HasDefault() {
					a.styles.PrintField(out, "default", a.styles.Emphasis.Render(describe(ix, assoc.Default)))
				} else {
					a.styles.PrintField(out, "default", "(none)")
					target = assoc.All[0]
				}
				if len(assoc.All) > 0 {
					names := make([]string, 0, len(assoc.All))
					for _, idx := range assoc.All {
						names = append(names, describe(ix, idx))
					}
					a.styles.PrintField(out, "candidates", strings.Join(names, ", "))
				}

				if showExec {
					for _, line := range ix.Item(target).Entry.ExecWithFilenames([]string{path}) {
						a.styles.PrintField(out, "exec", line)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showExec, "exec", "x", false, "print the command lines that would open each file")
	return cmd
}

// newIconCmd resolves an icon name to a file
func newIconCmd(a *app) *cobra.Command {
	var (
		size         int
		bitmapOnly   bool
		scalableOnly bool
	)

	cmd := &cobra.Command{
		Use:   "icon NAME",
		Short: "Resolve an icon name to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				size = a.cfg.IconSize
			}
			pred := func(d icon.Description) bool {
				switch {
				case bitmapOnly:
					return !d.Scalable
				case scalableOnly:
					return d.Scalable
				}
				return true
			}

			ic, ok := a.Icons().FindIconFunc(args[0], size, pred)
			if !ok {
				return errors.NewKind(errors.FileNotFound, fmt.Sprintf("icon %q not found in themes %v", args[0], a.Icons().Themes()), nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ic.Path)
			if a.debug {
				res := "scalable"
				if !ic.Desc.Scalable {
					res = strconv.Itoa(ic.Desc.Size) + "@" + strconv.Itoa(ic.Desc.Scale)
				}
				a.styles.PrintField(cmd.ErrOrStderr(), "bucket", res)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 0, "desired size in pixels (default from config)")
	cmd.Flags().BoolVar(&bitmapOnly, "bitmap", false, "only consider bitmap icons")
	cmd.Flags().BoolVar(&scalableOnly, "scalable", false, "only consider scalable icons")
	cmd.MarkFlagsMutuallyExclusive("bitmap", "scalable")
	return cmd
}

// newSearchCmd finds applications by name
func newSearchCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find applications by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix := a.Index()
			found := ix.Search(strings.Join(args, " "))
			if len(found) == 0 {
				a.styles.PrintWarning(cmd.OutOrStdout(), "no matching applications")
				return nil
			}
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}
			for _, idx := range found {
				it := ix.Item(idx)
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", it.Name, a.styles.Muted.Render(it.Entry.Exec))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results (0 for all)")
	return cmd
}

// newAssocCmd shows and changes default applications
func newAssocCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assoc",
		Short: "Show or change default applications",
	}

	show := &cobra.Command{
		Use:   "show [MIME...]",
		Short: "List associations, all of them when no type is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix := a.Index()
			if len(args) == 0 {
				args = ix.MIMETypes()
			}
			out := cmd.OutOrStdout()
			for _, mime := range args {
				assoc, ok := ix.Association(mime)
				if !ok {
					a.styles.PrintWarning(out, "no applications for "+mime)
					continue
				}
				def := "(none)"
				if assoc.HasDefault() {
					def = describe(ix, assoc.Default)
				}
				fmt.Fprintf(out, "%s=%s\n", mime, a.styles.Emphasis.Render(def))
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set MIME FILE.desktop",
		Short: "Make an application the default for a MIME type",
		Long: `Set the default application and write it to the mimeapps.list of the
local root. Records from other roots are never modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mime, filename := args[0], args[1]
			if !strings.HasSuffix(filename, ".desktop") {
				filename += ".desktop"
			}

			ix := a.Index()
			idx, ok := ix.Lookup(filename)
			if !ok {
				return errors.NewKind(errors.UnknownTarget, "no application named "+filename, nil)
			}
			if err := ix.ChangeDefaultAssoc(mime, idx); err != nil {
				return errors.Wrapf(err, "cannot make %s the default for %s", filename, mime)
			}
			if err := ix.WriteDefaultAssoc(); err != nil {
				if errors.IsFileAccessDenied(err) {
					a.styles.PrintWarning(cmd.ErrOrStderr(), "set local_root in the config file to a writable directory")
				}
				return err
			}
			a.styles.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s now opens %s (%s)", ix.Item(idx).Name, mime, ix.LocalAssocPath()))
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

// newConfigCmd manages the configuration file
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewFileError("config file already exists, use --force to overwrite", path, errors.InvalidPath, nil)
			}
			if err := config.SaveConfig(a.cfg, path); err != nil {
				return errors.Wrapf(err, "cannot write config file %s", path)
			}
			a.styles.PrintSuccess(cmd.OutOrStdout(), "wrote "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

// newDirsCmd prints the resolved search locations
func newDirsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dirs",
		Short: "Show the data roots and settings in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a.styles.PrintHeader(out, "Data roots")
			for _, root := range a.cfg.SearchRoots() {
				fmt.Fprintln(out, "  "+root)
			}
			a.styles.PrintHeader(out, "Settings")
			a.styles.PrintField(out, "local root", a.cfg.UserRoot())
			a.styles.PrintField(out, "locale", a.cfg.ResolvedLocale())
			a.styles.PrintField(out, "themes", strings.Join(a.Icons().Themes(), ", "))
			a.styles.PrintField(out, "icon size", strconv.Itoa(a.cfg.IconSize))
			if a.cfg.GlobDatabase != "" {
				a.styles.PrintField(out, "globs", a.cfg.GlobDatabase)
			}
			return nil
		},
	}
}

func describe(ix *menu.Index, idx int) string {
	it := ix.Item(idx)
	return it.Name + " (" + it.Basename + ".desktop)"
}
