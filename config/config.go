// Package config gathers the settings of the particles demo from built-in
// defaults, an optional TOML file and the command line, in that order.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// ErrHelp is returned by Parse when usage was requested.
var ErrHelp = errors.New("help requested")

type Config struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// Assets is the directory shaders, meshes and textures are read from.
	Assets     string `toml:"assets"`
	MSAA       bool   `toml:"msaa"`
	Validation bool   `toml:"validation"`
	Verbose    bool   `toml:"verbose"`

	Emitter Emitter `toml:"emitter"`
}

// Emitter sizes the demo's particle fountain.
type Emitter struct {
	Capacity int     `toml:"capacity"`
	Rate     float32 `toml:"rate"`
	Lifetime float32 `toml:"lifetime"`
}

func Default() Config {
	return Config{
		Title:      "particles",
		Width:      800,
		Height:     600,
		Assets:     "assets",
		MSAA:       true,
		Validation: validationDefault,
		Emitter: Emitter{
			Capacity: 256,
			Rate:     96,
			Lifetime: 2.5,
		},
	}
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.Newf("window size %dx%d is not positive", c.Width, c.Height)
	case c.Emitter.Capacity <= 0:
		return errors.Newf("emitter capacity %d is not positive", c.Emitter.Capacity)
	case c.Emitter.Lifetime <= 0:
		return errors.Newf("particle lifetime %g is not positive", c.Emitter.Lifetime)
	case c.Emitter.Rate < 0:
		return errors.Newf("spawn rate %g is negative", c.Emitter.Rate)
	}
	return nil
}

// Decode reads TOML settings over c. Keys it does not know are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.Newf("unknown settings:\n%s", strict.String())
		}
		return err
	}
	return nil
}

// Load reads a TOML settings file over c.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	if err := c.Decode(f); err != nil {
		return errors.Wrapf(err, "config %s", path)
	}
	return nil
}

const usage = `Usage: particles [options]

Options
	--config FILE
		Read settings from a TOML file. Command line options win.
	--assets DIR
		Read shaders, meshes and textures from DIR.
	--no-msaa
		Render with one sample per pixel.
	--validation
		Enable the Vulkan validation layers.
	--verbose
		Log at debug level.
	--help, -h
		Show this message.
`

// Usage writes the option list.
func Usage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Parse builds the configuration from the defaults, the file named by
// --config if any, and the remaining arguments. args excludes the program
// name.
func Parse(args []string) (Config, error) {
	cfg := Default()

	// The file goes under every other option, wherever --config appears.
	for i := 0; i < len(args); i++ {
		if args[i] != "--config" {
			continue
		}
		if i+1 == len(args) {
			return cfg, errors.New("--config needs a file name")
		}
		if err := cfg.Load(args[i+1]); err != nil {
			return cfg, err
		}
		i++
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--config":
			i++
		case "--assets":
			if i+1 == len(args) {
				return cfg, errors.New("--assets needs a directory")
			}
			i++
			cfg.Assets = args[i]
		case "--no-msaa":
			cfg.MSAA = false
		case "--validation":
			cfg.Validation = true
		case "--verbose":
			cfg.Verbose = true
		case "--help", "-h":
			return cfg, ErrHelp
		default:
			return cfg, errors.Newf("unrecognized option: %s\nUse --help or -h for option list.", arg)
		}
	}

	return cfg, cfg.Validate()
}
