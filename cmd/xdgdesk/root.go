package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xdgdesk/cmd/xdgdesk/cli"
	"xdgdesk/internal/config"
	"xdgdesk/internal/log"
	"xdgdesk/pkg/icon"
	"xdgdesk/pkg/menu"
	"xdgdesk/pkg/mimeglob"
)

// app carries the loaded configuration and the lazily built indexes shared by
// the subcommands.
type app struct {
	cfgFile string
	roots   []string
	locale  string
	debug   bool

	cfg    *config.Config
	styles cli.Styles

	index *menu.Index
	icons *icon.Collection
	globs *mimeglob.Index
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "xdgdesk",
		Short:   "Inspect desktop applications, icons and MIME associations",
		Long:    `xdgdesk reads the freedesktop.org data directories to show the application menu, resolve icons, match files to MIME types and manage default applications.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.loadConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/xdgdesk/config.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&a.roots, "root", nil, "data root to scan, lowest priority first (repeatable)")
	rootCmd.PersistentFlags().StringVar(&a.locale, "locale", "", "locale suffix for localized names, or \"auto\"")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newMenuCmd(a))
	rootCmd.AddCommand(newMimeCmd(a))
	rootCmd.AddCommand(newIconCmd(a))
	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newAssocCmd(a))
	rootCmd.AddCommand(newDirsCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

func (a *app) loadConfig(cmd *cobra.Command) {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\nUsing default settings.\n", err)
		a.cfg = config.New()
	}

	if len(a.roots) > 0 {
		a.cfg.Roots = a.roots
	}
	if a.locale != "" {
		a.cfg.Locale = a.locale
	}

	var opts []log.Option
	if a.cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	if a.cfg.Log.File != "" {
		opts = append(opts, log.WithFile(a.cfg.Log.File))
	}
	log.Configure(opts...)
	log.SetDebug(a.debug || a.cfg.Log.Debug)

	a.styles = cli.NewStyles(a.cfg.Style)
}

// Index scans the configured roots on first use.
func (a *app) Index() *menu.Index {
	if a.index == nil {
		a.index = menu.New(menu.Options{
			Locale:    a.cfg.ResolvedLocale(),
			LocalRoot: a.cfg.UserRoot(),
		})
		a.index.Scan(a.cfg.SearchRoots())
		if err := a.index.Diagnostics(); err != nil {
			log.LogWithError(err).Debug("menu scan reported problems")
		}
	}
	return a.index
}

// Icons scans the configured icon themes on first use.
func (a *app) Icons() *icon.Collection {
	if a.icons == nil {
		a.icons = icon.NewCollection()
		a.icons.Scan(a.cfg.Themes, a.cfg.SearchRoots())
	}
	return a.icons
}

// Globs loads the configured glob database, or merges the databases of every
// root when none is configured.
func (a *app) Globs() (*mimeglob.Index, error) {
	if a.globs != nil {
		return a.globs, nil
	}
	if a.cfg.GlobDatabase != "" {
		ix, err := mimeglob.Load(a.cfg.GlobDatabase)
		if err != nil {
			return nil, err
		}
		a.globs = ix
		return ix, nil
	}
	ix, err := mimeglob.LoadRoots(a.cfg.SearchRoots())
	if err != nil {
		log.LogWithError(err).Warn("some glob databases could not be read")
	}
	a.globs = ix
	return ix, nil
}

// resolveIcon is the icon lookup used when printing items.
func (a *app) resolveIcon(name string) (string, bool) {
	ic, ok := a.Icons().FindIcon(name, a.cfg.IconSize)
	if !ok {
		return "", false
	}
	return ic.Path, true
}
