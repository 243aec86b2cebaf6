package cli

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

// configFileName is looked up in the working directory before the user
// configuration directory.
const configFileName = ".composeviz.toml"

// Config is the optional configuration file. Every field provides a default
// for a command-line flag; flags given explicitly always win.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Serve  ServeConfig  `toml:"serve"`
}

// RenderConfig holds defaults for the render command.
type RenderConfig struct {
	OutputFormat         string   `toml:"output_format"`
	GraphvizOutputFormat string   `toml:"graphviz_output_format"`
	Background           string   `toml:"background"`
	Horizontal           bool     `toml:"horizontal"`
	IgnoreOverride       bool     `toml:"ignore_override"`
	NoVolumes            bool     `toml:"no_volumes"`
	NoNetworks           bool     `toml:"no_networks"`
	NoPorts              bool     `toml:"no_ports"`
	NoConfigs            bool     `toml:"no_configs"`
	NoSecrets            bool     `toml:"no_secrets"`
	Exclude              []string `toml:"exclude"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Disabled      bool   `toml:"disabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ServeConfig holds defaults for the serve command.
type ServeConfig struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// LoadConfig reads the configuration file. An explicit path must exist;
// otherwise ./.composeviz.toml and then $XDG_CONFIG_HOME/composeviz/config.toml
// are tried, and a zero Config is returned when neither exists. The second
// result is the file that was read.
func LoadConfig(path string) (Config, string, error) {
	var cfg Config

	if path == "" {
		path = findConfig()
		if path == "" {
			return cfg, "", nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		var pe toml.ParseError
		if errors.As(err, &pe) {
			return cfg, "", errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "parse config: %s", pe.Message).WithPath(path)
		}
		return cfg, "", errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "read config").WithPath(path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, "", errs.New(errs.ErrCodeInvalidConfiguration, "unknown config keys: %s", strings.Join(keys, ", ")).WithPath(path)
	}
	return cfg, path, nil
}

func findConfig() string {
	candidates := []string{configFileName}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// apply copies configured defaults into opts for every flag that was not
// set on the command line.
func (rc RenderConfig) apply(flags *pflag.FlagSet, opts *renderOpts) {
	setString := func(name, value string, dst *string) {
		if value != "" && !flags.Changed(name) {
			*dst = value
		}
	}
	setBool := func(name string, value bool, dst *bool) {
		if value && !flags.Changed(name) {
			*dst = true
		}
	}

	setString("output-format", rc.OutputFormat, &opts.outputFormat)
	setString("graphviz-output-format", rc.GraphvizOutputFormat, &opts.graphvizFormat)
	setString("background", rc.Background, &opts.background)
	setBool("horizontal", rc.Horizontal, &opts.horizontal)
	setBool("ignore-override", rc.IgnoreOverride, &opts.ignoreOverride)
	setBool("no-volumes", rc.NoVolumes, &opts.noVolumes)
	setBool("no-networks", rc.NoNetworks, &opts.noNetworks)
	setBool("no-ports", rc.NoPorts, &opts.noPorts)
	setBool("no-configs", rc.NoConfigs, &opts.noConfigs)
	setBool("no-secrets", rc.NoSecrets, &opts.noSecrets)
	if len(rc.Exclude) > 0 && !flags.Changed("exclude") {
		opts.exclude = rc.Exclude
	}
}
