// Package config loads modsh settings.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. the global file (~/.config/modsh/modsh.jsonc)
//  3. the project file (.modsh.jsonc in the working directory)
//  4. the file named by MODSH_CONFIG
//  5. MODSH_* environment variables, after loading .env
//  6. command-line flags that were set explicitly
//
// Files are JSON with comments.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

// Config holds every modsh setting.
type Config struct {
	// Entry is the unit a session starts in and `cd` returns to.
	Entry   string `json:"entry,omitempty"`
	Verbose bool   `json:"verbose,omitempty"`
	// GoPath is the root of the source units.
	GoPath string `json:"gopath,omitempty"`

	Prompt             string `json:"prompt,omitempty"`
	ContinuationPrompt string `json:"continuationPrompt,omitempty"`
	NoColor            bool   `json:"noColor,omitempty"`

	LogLevel  string `json:"logLevel,omitempty"`
	PrintLogs bool   `json:"printLogs,omitempty"`

	Server ServerConfig `json:"server"`
}

// ServerConfig configures `modsh serve`.
type ServerConfig struct {
	Port        int      `json:"port,omitempty"`
	CORSOrigins []string `json:"corsOrigins,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Entry:              "main",
		GoPath:             DefaultGoPath(),
		Prompt:             ">>> ",
		ContinuationPrompt: "... ",
		LogLevel:           "info",
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration for a session started in directory. extra
// files are read after MODSH_CONFIG. Missing files are skipped; a file that
// is not valid JSONC is an error.
func Load(fsys afero.Fs, directory string, extra ...string) (*Config, error) {
	cfg := Default()

	if directory != "" {
		if err := loadDotEnv(fsys, filepath.Join(directory, ".env")); err != nil {
			return nil, err
		}
	}

	files := []string{GlobalConfigPath()}
	if directory != "" {
		files = append(files, ProjectConfigPath(directory))
	}
	if p := os.Getenv("MODSH_CONFIG"); p != "" {
		files = append(files, p)
	}
	files = append(files, extra...)

	seen := make(map[string]bool)
	for _, p := range files {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if err := loadFile(fsys, p, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(fsys afero.Fs, path string, cfg *Config) error {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &fileCfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	merge(cfg, &fileCfg)
	return nil
}

// loadDotEnv sets the variables of a .env file that are not already set.
func loadDotEnv(fsys afero.Fs, path string) error {
	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range vars {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, v)
		}
	}
	return nil
}

func merge(dst, src *Config) {
	if src.Entry != "" {
		dst.Entry = src.Entry
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.GoPath != "" {
		dst.GoPath = src.GoPath
	}
	if src.Prompt != "" {
		dst.Prompt = src.Prompt
	}
	if src.ContinuationPrompt != "" {
		dst.ContinuationPrompt = src.ContinuationPrompt
	}
	if src.NoColor {
		dst.NoColor = true
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.PrintLogs {
		dst.PrintLogs = true
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if len(src.Server.CORSOrigins) > 0 {
		dst.Server.CORSOrigins = src.Server.CORSOrigins
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MODSH_ENTRY"); v != "" {
		cfg.Entry = v
	}
	if v := os.Getenv("MODSH_GOPATH"); v != "" {
		cfg.GoPath = v
	}
	if v := os.Getenv("MODSH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MODSH_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}

	bools := map[string]*bool{
		"MODSH_VERBOSE":    &cfg.Verbose,
		"MODSH_NO_COLOR":   &cfg.NoColor,
		"MODSH_PRINT_LOGS": &cfg.PrintLogs,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}

	if v := os.Getenv("MODSH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MODSH_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// RegisterFlags adds the flags that override configuration to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.Bool("print-logs", false, "Print logs to stderr")
	flags.Bool("no-color", false, "Disable ANSI colors")
	flags.String("gopath", "", "Root of the Go source units")
	flags.String("config", "", "Additional config file")
}

// ApplyFlags copies the flags that were set on the command line into cfg.
// Flags not defined in the set are ignored.
func ApplyFlags(cfg *Config, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "print-logs":
			cfg.PrintLogs, _ = flags.GetBool(f.Name)
		case "no-color":
			cfg.NoColor, _ = flags.GetBool(f.Name)
		case "gopath":
			cfg.GoPath = f.Value.String()
		case "verbose":
			cfg.Verbose, _ = flags.GetBool(f.Name)
		case "port":
			cfg.Server.Port, _ = flags.GetInt(f.Name)
		}
	})
}
