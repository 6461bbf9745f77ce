/*
	Package config reads TOML descriptions of requests and stages.

	A configuration file looks like:

		version = "0.1.0"

		[logging]
		logfile = "/var/log/voxpipe.log"
		max_log_size = 500 # MB
		max_log_age = 30   # days
		mode = "info"

		[[request]]
		key = "SCALES"
		kind = "array"
		shape = [10, 10]
		voxel_size = [1, 1]
		dtype = "float32"

		[[balance]]
		labels = "LABELS"
		scales = "SCALES"
		masks = ["MASK"]
		clip_min = 0.05
		clip_max = 0.95
*/
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/blang/semver"
	"github.com/goccy/go-json"
	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/nodes"
	"github.com/janelia-flyem/voxpipe/pipeline"
	"github.com/janelia-flyem/voxpipe/vox"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Version is the newest configuration version understood by this package.  Files
// with the same major version and an equal or older version are accepted.
const Version = "0.1.0"

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrIncompatibleConfig = errors.New("incompatible configuration version")
)

//go:embed schema.json
var schemaText string

var schema = jsonschema.MustCompileString("schema.json", schemaText)

// Config is a decoded configuration file.
type Config struct {
	Version  string
	Logging  vox.LogConfig
	Requests []RequestConfig `toml:"request"`
	Balance  []BalanceConfig `toml:"balance"`
}

// RequestConfig describes one stream of a request.
type RequestConfig struct {
	Key       string
	Kind      string
	Shape     []int32
	VoxelSize []int32      `toml:"voxel_size"`
	DataType  vox.DataType `toml:"dtype"`
}

// BalanceConfig describes a BalanceLabels stage.  Zero clip bounds take the defaults.
type BalanceConfig struct {
	Labels  string
	Scales  string
	Masks   []string
	ClipMin float64 `toml:"clip_min"`
	ClipMax float64 `toml:"clip_max"`
}

// Load decodes the configuration file and applies its logging section.  A relative
// log file is taken relative to the configuration file.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: no configuration file provided", ErrInvalidConfig)
	}
	tlog := vox.NewTimeLog()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if c.Logging.Logfile != "" && !filepath.IsAbs(c.Logging.Logfile) {
		absDir, err := filepath.Abs(filepath.Dir(filename))
		if err != nil {
			return nil, err
		}
		c.Logging.Logfile = filepath.Join(absDir, c.Logging.Logfile)
	}
	if err := c.Logging.SetLogger(); err != nil {
		return nil, err
	}
	tlog.Infof("Loaded configuration %s (version %s)", filename, c.Version)
	return c, nil
}

// Decode parses TOML text, validates it against the configuration schema and checks
// its version.
func Decode(text string) (*Config, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("%w: could not decode TOML: %v", ErrInvalidConfig, err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}
	c := new(Config)
	if _, err := toml.Decode(text, c); err != nil {
		return nil, fmt.Errorf("%w: could not decode TOML: %v", ErrInvalidConfig, err)
	}
	if err := checkVersion(c.Version); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks a decoded TOML document against the schema.  The document goes
// through JSON first so its numbers have the types the validator expects.
func validate(raw map[string]interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func checkVersion(version string) error {
	have, err := semver.Parse(version)
	if err != nil {
		return fmt.Errorf("%w: bad version %q: %v", ErrInvalidConfig, version, err)
	}
	supported := semver.MustParse(Version)
	if have.Major != supported.Major || have.GT(supported) {
		return fmt.Errorf("%w: got %s, this build reads %d.x up to %s", ErrIncompatibleConfig, have, supported.Major, supported)
	}
	return nil
}

// Request builds a request from the configured streams, adding them in order so the
// regions are centered.
func (c *Config) Request() (*batch.Request, error) {
	req := batch.NewRequest()
	for _, rc := range c.Requests {
		kind, err := batch.ParseKeyKind(rc.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		key, err := batch.NewKey(kind, rc.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		shape, err := vox.NewPoint(rc.Shape)
		if err != nil {
			return nil, fmt.Errorf("%w: shape of %s: %v", ErrInvalidConfig, key, err)
		}
		var voxelSize vox.Point
		if len(rc.VoxelSize) != 0 {
			if voxelSize, err = vox.NewPoint(rc.VoxelSize); err != nil {
				return nil, fmt.Errorf("%w: voxel size of %s: %v", ErrInvalidConfig, key, err)
			}
		}
		if err := req.Add(key, shape, voxelSize); err != nil {
			return nil, err
		}
		if rc.DataType.Known() {
			if err := setDataType(req, key, rc.DataType); err != nil {
				return nil, err
			}
		}
	}
	return req, nil
}

func setDataType(req *batch.Request, key batch.Key, dt vox.DataType) error {
	spec, _ := req.Get(key)
	switch s := spec.(type) {
	case batch.ArraySpec:
		s.DataType = dt
		spec = s
	case batch.GraphSpec:
		s.DataType = dt
		spec = s
	}
	return req.Set(key, spec)
}

// Stages builds the configured stages in file order, upstream first.
func (c *Config) Stages() ([]pipeline.Stage, error) {
	var stages []pipeline.Stage
	for _, bc := range c.Balance {
		var masks []batch.Key
		for _, name := range bc.Masks {
			masks = append(masks, batch.NewArrayKey(name))
		}
		bl := nodes.NewBalanceLabels(batch.NewArrayKey(bc.Labels), batch.NewArrayKey(bc.Scales), masks...)
		if bc.ClipMin != 0 || bc.ClipMax != 0 {
			min, max := bc.ClipMin, bc.ClipMax
			if min == 0 {
				min = nodes.DefaultClipMin
			}
			if max == 0 {
				max = nodes.DefaultClipMax
			}
			var err error
			if bl, err = bl.WithClip(min, max); err != nil {
				return nil, err
			}
		}
		stages = append(stages, bl)
	}
	return stages, nil
}
