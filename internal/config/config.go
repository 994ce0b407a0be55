package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default locations. Overridable through the settings file and env.
const (
	DefaultDataDir     = "/var/lib/wpforge"
	DefaultLogDir      = "/var/log/wpforge"
	DefaultWebRoot     = "/var/www/vhosts"
	DefaultEnvFile     = "/etc/wpforge/wpforge.env"
	DefaultWPTarball   = "https://wordpress.org/latest.tar.gz"
	DefaultSaltsURL    = "https://api.wordpress.org/secret-key/1.1/salt/"
	DefaultCRSRepo     = "https://github.com/coreruleset/coreruleset.git"
	DefaultSettingsLoc = "/etc/wpforge/wpforge.yaml"
)

// Host describes an optional remote target reached over SSH. When Address
// is empty, wpforge provisions the local machine.
type Host struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`
}

// Settings are the engine-level knobs, loaded from the YAML settings file
// with env-file overrides on top.
type Settings struct {
	DataDir    string `yaml:"data_dir"`
	LogDir     string `yaml:"log_dir"`
	WebRoot    string `yaml:"web_root"`
	WPTarball  string `yaml:"wp_tarball"`
	SaltsURL   string `yaml:"salts_url"`
	CRSRepo    string `yaml:"crs_repo"`
	AdminEmail string `yaml:"admin_email"` // default for the prompt
	Host       Host   `yaml:"host"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		DataDir:   DefaultDataDir,
		LogDir:    DefaultLogDir,
		WebRoot:   DefaultWebRoot,
		WPTarball: DefaultWPTarball,
		SaltsURL:  DefaultSaltsURL,
		CRSRepo:   DefaultCRSRepo,
	}
}

// LoadSettings merges, in order: built-in defaults, the YAML settings file
// (if present), and WPFORGE_* variables from the env file and process env.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	if path == "" {
		path = DefaultSettingsLoc
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}

	// Env file is optional; process env always wins.
	_ = godotenv.Load(DefaultEnvFile)

	if v := os.Getenv("WPFORGE_DATA_DIR"); v != "" {
		s.DataDir = v
	}
	if v := os.Getenv("WPFORGE_LOG_DIR"); v != "" {
		s.LogDir = v
	}
	if v := os.Getenv("WPFORGE_WEB_ROOT"); v != "" {
		s.WebRoot = v
	}
	if v := os.Getenv("WPFORGE_ADMIN_EMAIL"); v != "" {
		s.AdminEmail = v
	}
	return s, nil
}

// SiteConfig is everything one WordPress site needs: the answers to the
// interactive prompts plus derived paths.
type SiteConfig struct {
	Domain     string
	DBName     string
	DBUser     string
	DBPass     string
	AdminEmail string

	// SiteRoot is derived: <web_root>/<domain>.
	SiteRoot string
}

var (
	domainRe     = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)
	identifierRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validate rejects values that would break shell commands, SQL statements or
// filesystem paths further down the plan.
func (c *SiteConfig) Validate() error {
	if !domainRe.MatchString(strings.ToLower(c.Domain)) {
		return fmt.Errorf("invalid domain name %q", c.Domain)
	}
	if !identifierRe.MatchString(c.DBName) {
		return fmt.Errorf("invalid database name %q (letters, digits and underscore only)", c.DBName)
	}
	if !identifierRe.MatchString(c.DBUser) {
		return fmt.Errorf("invalid database user %q (letters, digits and underscore only)", c.DBUser)
	}
	if c.DBPass == "" {
		return fmt.Errorf("database password must not be empty")
	}
	if strings.ContainsAny(c.DBPass, `'"\`) {
		return fmt.Errorf("database password must not contain quotes or backslashes")
	}
	if !emailRe.MatchString(c.AdminEmail) {
		return fmt.Errorf("invalid admin email %q", c.AdminEmail)
	}
	return nil
}
