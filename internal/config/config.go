package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"xdgdesk/internal/errors"
)

// DefaultIconSize is the pixel size icons are resolved at when unset.
const DefaultIconSize = 48

// LocaleAuto asks for the locale to be detected from the environment.
const LocaleAuto = "auto"

// Config represents the application configuration structure.
// It defines where desktop data is searched and how it is presented.
type Config struct {
	Roots        []string `yaml:"roots" toml:"roots"`                 // Data roots, lowest priority first
	LocalRoot    string   `yaml:"local_root" toml:"local_root"`       // User writable root for mimeapps.list
	Themes       []string `yaml:"themes" toml:"themes"`               // Icon themes, most specific first
	IconSize     int      `yaml:"icon_size" toml:"icon_size"`         // Desired icon size in pixels
	Locale       string   `yaml:"locale" toml:"locale"`               // Name[<locale>] suffix, "auto" or empty
	GlobDatabase string   `yaml:"glob_database" toml:"glob_database"` // MIME glob database file
	Log          struct {
		Debug bool   `yaml:"debug" toml:"debug"` // Enable debug output
		JSON  bool   `yaml:"json" toml:"json"`   // One JSON object per line
		File  string `yaml:"file" toml:"file"`   // Also append to this file
	} `yaml:"log" toml:"log"`
	Style Style `yaml:"style" toml:"style"`
}

// Style holds the colors used by the command line output.
type Style struct {
	Name     string `yaml:"name" toml:"name"`         // Palette name (default, dark, light, monochrome)
	Primary  string `yaml:"primary" toml:"primary"`   // Menu headings
	Emphasis string `yaml:"emphasis" toml:"emphasis"` // Default applications
	Muted    string `yaml:"muted" toml:"muted"`       // Paths and secondary text
	Warning  string `yaml:"warning" toml:"warning"`   // Missing icons and unknown types
}

// Path returns the default configuration file,
// $XDG_CONFIG_HOME/xdgdesk/config.yaml.
func Path() (string, error) {
	return PathWithEnv(os.Getenv("XDG_CONFIG_HOME"), os.Getenv("HOME"))
}

// PathWithEnv is Path with explicit environment values.
func PathWithEnv(configHome, home string) (string, error) {
	if configHome == "" {
		if home == "" {
			return "", errors.NewConfigError("cannot determine config directory", "HOME", errors.ConfigNotFound, nil)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "xdgdesk", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location. A config.toml
// next to the default path is used when no config.yaml exists.
func LoadConfig() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		alt := strings.TrimSuffix(path, ".yaml") + ".toml"
		if _, err := os.Stat(alt); err == nil {
			path = alt
		}
	}
	return LoadConfigFile(path)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfigFile loads configuration from a specific file path. The format
// follows the extension: .toml or YAML otherwise.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.NewFileError("error reading config file", path, errors.FileAccessDenied, err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &tempCfg)
	} else {
		err = yaml.Unmarshal(data, &tempCfg)
	}
	if err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}

	cfg.merge(&tempCfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if len(o.Roots) > 0 {
		c.Roots = o.Roots
	}
	if o.LocalRoot != "" {
		c.LocalRoot = o.LocalRoot
	}
	if len(o.Themes) > 0 {
		c.Themes = o.Themes
	}
	if o.IconSize != 0 {
		c.IconSize = o.IconSize
	}
	c.Locale = o.Locale
	if o.GlobDatabase != "" {
		c.GlobDatabase = o.GlobDatabase
	}
	c.Log.Debug = o.Log.Debug
	c.Log.JSON = o.Log.JSON
	c.Log.File = o.Log.File

	if o.Style.Name != "" {
		c.ApplyStyle(o.Style.Name)
	}
	// Explicit colors override the palette.
	for dst, src := range map[*string]string{
		&c.Style.Primary:  o.Style.Primary,
		&c.Style.Emphasis: o.Style.Emphasis,
		&c.Style.Muted:    o.Style.Muted,
		&c.Style.Warning:  o.Style.Warning,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{
		Roots:    []string{},
		Themes:   []string{},
		IconSize: DefaultIconSize,
	}
	cfg.ApplyStyle("default")
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewFileError("failed to create config directory", dir, errors.FileOperationFailed, err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	return nil
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if c.IconSize <= 0 {
		return errors.NewConfigError("icon size must be > 0", "icon_size", errors.InvalidConfig, nil)
	}

	for i, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return errors.NewConfigError("root path cannot be empty", "roots", errors.InvalidConfig, nil)
		}
		c.Roots[i] = filepath.Clean(root)
	}

	for _, theme := range c.Themes {
		if strings.TrimSpace(theme) == "" || strings.ContainsRune(theme, filepath.Separator) {
			return errors.NewConfigError("invalid icon theme name: "+theme, "themes", errors.InvalidConfig, nil)
		}
	}

	if strings.ContainsAny(c.Locale, "[]= \t") {
		return errors.NewConfigError("invalid locale: "+c.Locale, "locale", errors.InvalidConfig, nil)
	}

	if !validStyle(c.Style.Name) {
		return errors.NewConfigError("invalid style: "+c.Style.Name, "style", errors.InvalidConfig, nil)
	}

	return nil
}

// SearchRoots returns the configured roots, or the XDG data directories when
// none are configured.
func (c *Config) SearchRoots() []string {
	if len(c.Roots) > 0 {
		return c.Roots
	}
	return DataDirs()
}

// UserRoot returns the root whose associations are written back.
func (c *Config) UserRoot() string {
	if c.LocalRoot != "" {
		return c.LocalRoot
	}
	return DataHome()
}

// ResolvedLocale returns the locale suffix to select names with.
func (c *Config) ResolvedLocale() string {
	if c.Locale != LocaleAuto {
		return c.Locale
	}
	return DetectLocale()
}

// GetStyle returns a predefined palette by name.
// If the palette doesn't exist, returns the default one.
func GetStyle(name string) map[string]string {
	styles := map[string]map[string]string{
		"default": {
			"primary":  "213", // Purple
			"emphasis": "114", // Green
			"muted":    "245", // Grey
			"warning":  "220", // Yellow
		},
		"dark": {
			"primary":  "105", // Dark Blue
			"emphasis": "78",  // Dark Green
			"muted":    "240", // Dark Grey
			"warning":  "214", // Dark Yellow
		},
		"light": {
			"primary":  "135", // Light Purple
			"emphasis": "150", // Light Green
			"muted":    "248", // Light Grey
			"warning":  "222", // Light Yellow
		},
		"monochrome": {
			"primary":  "255", // Bright White
			"emphasis": "252", // White
			"muted":    "245", // Light Grey
			"warning":  "241", // Medium Grey
		},
	}

	if style, exists := styles[name]; exists {
		return style
	}
	return styles["default"]
}

// ApplyStyle sets the palette in the configuration.
func (c *Config) ApplyStyle(name string) {
	style := GetStyle(name)

	c.Style.Name = name
	c.Style.Primary = style["primary"]
	c.Style.Emphasis = style["emphasis"]
	c.Style.Muted = style["muted"]
	c.Style.Warning = style["warning"]
}

// ListStyles returns the available palette names.
func ListStyles() []string {
	return []string{"default", "dark", "light", "monochrome"}
}

func validStyle(name string) bool {
	for _, s := range ListStyles() {
		if s == name {
			return true
		}
	}
	return false
}
