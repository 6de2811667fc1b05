// Package config handles optimizer configuration loading and
// management.
package config

// Config holds all optimizer settings.
type Config struct {
	Hashing   HashingConfig   `yaml:"hashing"`
	Geometry  GeometryConfig  `yaml:"geometry"`
	Collision CollisionConfig `yaml:"collision"`
	Animation AnimationConfig `yaml:"animation"`
	Spells    SpellsConfig    `yaml:"spells"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HashingConfig sets the per-attribute rounding used when comparing
// vertices and branches.
type HashingConfig struct {
	VertexPrecision int `yaml:"vertex_precision"`
	NormalPrecision int `yaml:"normal_precision"`
	UVPrecision     int `yaml:"uv_precision"`
	VColPrecision   int `yaml:"vcol_precision"`
}

// GeometryConfig holds render geometry settings.
type GeometryConfig struct {
	StripCutoff       float32 `yaml:"strip_cutoff"`
	Stitch            bool    `yaml:"stitch"`
	MaxTriangles      int     `yaml:"max_triangles"`
	BonesPerPartition int     `yaml:"bones_per_partition"`
	BonesPerVertex    int     `yaml:"bones_per_vertex"`
}

// CollisionConfig holds collision geometry settings.
type CollisionConfig struct {
	VertexPrecision int `yaml:"vertex_precision"`
}

// AnimationConfig holds key pruning settings.
type AnimationConfig struct {
	Significance int `yaml:"significance"`
}

// SpellsConfig disables individual passes by name.
type SpellsConfig struct {
	Exclude []string `yaml:"exclude"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Excluded reports whether a pass is disabled by name.
func (s SpellsConfig) Excluded(name string) bool {
	for _, n := range s.Exclude {
		if n == name {
			return true
		}
	}
	return false
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Hashing: HashingConfig{
			VertexPrecision: 3,
			NormalPrecision: 3,
			UVPrecision:     5,
			VColPrecision:   3,
		},
		Geometry: GeometryConfig{
			StripCutoff:       10,
			Stitch:            true,
			MaxTriangles:      32000,
			BonesPerPartition: 18,
			BonesPerVertex:    4,
		},
		Collision: CollisionConfig{
			VertexPrecision: 3,
		},
		Animation: AnimationConfig{
			Significance: 4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
