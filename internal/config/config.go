// Package config loads the framegraph runtime configuration: a YAML file,
// then a .env file and FRAMEGRAPH_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/domain"
)

// ErrInvalidConfig is returned when the configuration fails to decode or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAMEGRAPH_"

type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	FPS       int    `mapstructure:"fps" yaml:"fps" validate:"gte=1,lte=240"`
	MaxFrames uint64 `mapstructure:"max_frames" yaml:"max_frames"`

	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Overlay   OverlayConfig   `mapstructure:"overlay" yaml:"overlay"`
	Trail     TrailConfig     `mapstructure:"trail" yaml:"trail"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`

	// Graph replaces the default topology when it lists any node.
	Graph framegraph.Topology `mapstructure:"graph" yaml:"graph"`
}

// CaptureConfig sizes the synthetic capture.
type CaptureConfig struct {
	Width  int `mapstructure:"width" yaml:"width" validate:"gte=1,lte=7680"`
	Height int `mapstructure:"height" yaml:"height" validate:"gte=1,lte=4320"`
	Warmup int `mapstructure:"warmup" yaml:"warmup" validate:"gte=0"`
}

type InferenceConfig struct {
	Async   bool          `mapstructure:"async" yaml:"async"`
	Latency time.Duration `mapstructure:"latency" yaml:"latency" validate:"gte=0"`
}

type OverlayConfig struct {
	Mirror   bool `mapstructure:"mirror" yaml:"mirror"`
	ShowFace bool `mapstructure:"show_face" yaml:"show_face"`
	ShowHand bool `mapstructure:"show_hand" yaml:"show_hand"`
	Radius   int  `mapstructure:"radius" yaml:"radius" validate:"gte=0,lte=64"`
}

type TrailConfig struct {
	Decay  float64 `mapstructure:"decay" yaml:"decay" validate:"gt=0,lte=1"`
	Length int     `mapstructure:"length" yaml:"length" validate:"gte=1,lte=4096"`
}

// HTTPConfig enables the HTTP API when Addr is set.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// RedisConfig enables the redis publisher when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" validate:"required"`
	Compress bool          `mapstructure:"compress" yaml:"compress"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

// Marshal renders the configuration as YAML that Load accepts.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		FPS:       60,
		Capture:   CaptureConfig{Width: 640, Height: 480},
		Inference: InferenceConfig{Async: true},
		Overlay:   OverlayConfig{ShowFace: true, ShowHand: true, Radius: 2},
		Trail:     TrailConfig{Decay: 0.05, Length: 48},
		Redis:     RedisConfig{Prefix: "framegraph:", Compress: true},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), the .env file in the working directory, and the
// process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, err
		}
	}

	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge decodes a YAML document over the current values.
func (c *Config) merge(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: failed to parse yaml: %w", ErrInvalidConfig, err)
	}
	return c.decode(raw)
}

func (c *Config) decode(raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// envKeys maps FRAMEGRAPH_* variables to config paths.
var envKeys = map[string][]string{
	"LOG_LEVEL":         {"log_level"},
	"FPS":               {"fps"},
	"MAX_FRAMES":        {"max_frames"},
	"CAPTURE_WIDTH":     {"capture", "width"},
	"CAPTURE_HEIGHT":    {"capture", "height"},
	"INFERENCE_ASYNC":   {"inference", "async"},
	"INFERENCE_LATENCY": {"inference", "latency"},
	"OVERLAY_MIRROR":    {"overlay", "mirror"},
	"TRAIL_DECAY":       {"trail", "decay"},
	"TRAIL_LENGTH":      {"trail", "length"},
	"HTTP_ADDR":         {"http", "addr"},
	"REDIS_ADDR":        {"redis", "addr"},
	"REDIS_PASSWORD":    {"redis", "password"},
	"REDIS_DB":          {"redis", "db"},
	"REDIS_PREFIX":      {"redis", "prefix"},
}

// applyEnv overlays FRAMEGRAPH_* variables from environ (KEY=VALUE pairs).
func (c *Config) applyEnv(environ []string) error {
	raw := map[string]any{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path, known := envKeys[strings.TrimPrefix(key, EnvPrefix)]
		if !known {
			continue
		}
		node := raw
		for _, part := range path[:len(path)-1] {
			next, ok := node[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[part] = next
			}
			node = next
		}
		node[path[len(path)-1]] = value
	}
	return c.decode(raw)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Interval is the tick period for the configured frame rate.
func (c *Config) Interval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Topology returns the graph to build: the configured one if present,
// otherwise the default pipeline with overlay, trail and inference settings
// applied as node configuration.
func (c *Config) Topology() framegraph.Topology {
	if len(c.Graph.Nodes) > 0 {
		return c.Graph
	}
	return framegraph.DefaultTopology().WithNodeConfig(map[domain.NodeID]map[string]any{
		framegraph.NodeFace: {"async": c.Inference.Async},
		framegraph.NodeHand: {"async": c.Inference.Async},
		framegraph.NodeOverlay: {
			"mirror":    c.Overlay.Mirror,
			"show_face": c.Overlay.ShowFace,
			"show_hand": c.Overlay.ShowHand,
			"radius":    c.Overlay.Radius,
		},
		framegraph.NodeOutput: {
			"trail_decay":  c.Trail.Decay,
			"trail_length": c.Trail.Length,
		},
	})
}
