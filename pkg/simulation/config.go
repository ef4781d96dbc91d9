package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchemaJSON string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

// Upper limits, kept in sync with config.schema.json.
const (
	MaxAgents     = 100000
	MaxPredators  = 1000
	MaxResolution = 256
	MaxWorkers    = 256
)

// Bounds is the size of the world box, which spans [0, Width]×[0, Height]×[0, Depth].
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Vector returns the bounds as a vector (width, height, depth).
func (b Bounds) Vector() geometry.Vector3D {
	return geometry.Vector3D{X: b.Width, Y: b.Height, Z: b.Depth}
}

// Config holds every parameter the simulation reads at the start of a step.
type Config struct {
	// Population
	AgentCount int `json:"agentCount"`

	// Physics
	MaxSpeed float64 `json:"maxSpeed"`
	MaxForce float64 `json:"maxForce"`

	// Perception
	SeparationRadius float64 `json:"separationRadius"` // Personal space radius
	PerceptionRadius float64 `json:"perceptionRadius"` // How far can they see?
	EdgeMargin       float64 `json:"edgeMargin"`

	// Rule weights
	SeparationWeight float64 `json:"separationWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	CohesionWeight   float64 `json:"cohesionWeight"`

	// World
	Bounds         Bounds `json:"bounds"`
	GridResolution int    `json:"gridResolution"`

	// Predators
	PredatorEnabled     bool    `json:"predatorEnabled"`
	PredatorCount       int     `json:"predatorCount"`
	PredatorForceFactor float64 `json:"predatorForceFactor"`
	FleeRadius          float64 `json:"fleeRadius"`
	FleeWeight          float64 `json:"fleeWeight"`

	// Obstacles
	AvoidDistance float64             `json:"avoidDistance"`
	AvoidWeight   float64             `json:"avoidWeight"`
	Obstacles     []behavior.Obstacle `json:"obstacles,omitempty"`

	// Execution
	Workers int    `json:"workers"` // >1 runs the force phase in parallel
	Seed    uint64 `json:"seed"`    // 0 picks a random seed
}

func DefaultConfig() *Config {
	return &Config{
		AgentCount:          100,
		MaxSpeed:            1.0,
		MaxForce:            0.03,
		SeparationRadius:    5,
		PerceptionRadius:    15,
		EdgeMargin:          10,
		SeparationWeight:    1.5,
		AlignmentWeight:     1.0,
		CohesionWeight:      1.0,
		Bounds:              Bounds{Width: 100, Height: 100, Depth: 100},
		GridResolution:      6,
		PredatorEnabled:     false,
		PredatorCount:       1,
		PredatorForceFactor: 2,
		FleeRadius:          20,
		FleeWeight:          1.5,
		AvoidDistance:       10,
		AvoidWeight:         1,
		Workers:             1,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Obstacles = slices.Clone(c.Obstacles)
	return &clone
}

// Settings extracts the steering constants.
func (c *Config) Settings() behavior.Settings {
	return behavior.Settings{
		MaxSpeed:            c.MaxSpeed,
		MaxForce:            c.MaxForce,
		PerceptionRadius:    c.PerceptionRadius,
		SeparationRadius:    c.SeparationRadius,
		SeparationWeight:    c.SeparationWeight,
		AlignmentWeight:     c.AlignmentWeight,
		CohesionWeight:      c.CohesionWeight,
		Bounds:              c.Bounds.Vector(),
		EdgeMargin:          c.EdgeMargin,
		AvoidDistance:       c.AvoidDistance,
		AvoidWeight:         c.AvoidWeight,
		FleeRadius:          c.FleeRadius,
		FleeWeight:          c.FleeWeight,
		PredatorForceFactor: c.PredatorForceFactor,
	}
}

// ActivePredators returns the number of adversarial agents the config asks for.
func (c *Config) ActivePredators() int {
	if !c.PredatorEnabled {
		return 0
	}
	return c.PredatorCount
}

// Validate checks the cross-field rules the schema cannot express and the
// ranges for configs built in code. Every problem found is reported.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, v))
		}
	}

	inRange := func(name string, v, upper int) {
		if v < 0 || v > upper {
			errs = append(errs, fmt.Errorf("%s must be in [0, %d], got %d", name, upper, v))
		}
	}

	inRange("agentCount", c.AgentCount, MaxAgents)
	positive("maxSpeed", c.MaxSpeed)
	nonNegative("maxForce", c.MaxForce)
	positive("separationRadius", c.SeparationRadius)
	positive("perceptionRadius", c.PerceptionRadius)
	// neighbors are only gathered within the perception radius
	if c.SeparationRadius > c.PerceptionRadius {
		errs = append(errs, fmt.Errorf("separationRadius %v must not exceed perceptionRadius %v",
			c.SeparationRadius, c.PerceptionRadius))
	}
	nonNegative("edgeMargin", c.EdgeMargin)
	nonNegative("separationWeight", c.SeparationWeight)
	nonNegative("alignmentWeight", c.AlignmentWeight)
	nonNegative("cohesionWeight", c.CohesionWeight)
	positive("bounds.width", c.Bounds.Width)
	positive("bounds.height", c.Bounds.Height)
	positive("bounds.depth", c.Bounds.Depth)
	if c.GridResolution < 1 || c.GridResolution > MaxResolution {
		errs = append(errs, fmt.Errorf("gridResolution must be in [1, %d], got %d", MaxResolution, c.GridResolution))
	}
	inRange("predatorCount", c.PredatorCount, MaxPredators)
	positive("predatorForceFactor", c.PredatorForceFactor)
	nonNegative("fleeRadius", c.FleeRadius)
	nonNegative("fleeWeight", c.FleeWeight)
	nonNegative("avoidDistance", c.AvoidDistance)
	nonNegative("avoidWeight", c.AvoidWeight)
	for i, o := range c.Obstacles {
		if !o.Position.IsFinite() {
			errs = append(errs, fmt.Errorf("obstacles[%d].position must be finite", i))
		}
		positive(fmt.Sprintf("obstacles[%d].radius", i), o.Radius)
	}
	inRange("workers", c.Workers, MaxWorkers)
	return errors.Join(errs...)
}

// LoadConfig reads a configuration file on top of DefaultConfig.
// The format is picked from the extension: .json, .toml, .yaml or .yml.
// Every format is validated against the same JSON schema.
func LoadConfig(path string) (*Config, error) {
	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeJSON(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config json: %w", err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if doc == nil {
		doc = map[string]any{}
	}
	// normalize every format to JSON so the schema sees the same value types.
	// Integers stay exact: json.Number, toml int64 and yaml int/uint64 all
	// marshal back without going through float64.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize config: %w", err)
	}
	cfg := DefaultConfig()
	if err := cfg.apply(b); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge returns a copy of c with the fields present in update overwritten.
// Keys are the JSON field names; c itself is left untouched.
// Struct numbers are doubles, so a seed above 2^53 cannot be sent this way;
// use a config file for those.
func (c *Config) Merge(update *structpb.Struct) (*Config, error) {
	b, err := protojson.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config update: %w", err)
	}
	merged := c.Clone()
	if err := merged.apply(b); err != nil {
		return nil, err
	}
	return merged, nil
}

// ToStruct encodes the config as a structpb.Struct, the shape Merge accepts.
func (c *Config) ToStruct() (*structpb.Struct, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}
	return s, nil
}

// apply validates a JSON document against the schema and decodes it over c.
func (c *Config) apply(doc []byte) error {
	var v any
	if err := decodeJSON(doc, &v); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if err := configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := json.Unmarshal(doc, c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// decodeJSON unmarshals numbers as json.Number so large integers such as
// seeds keep every digit.
func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after the top-level value")
	}
	return nil
}
