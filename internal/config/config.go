package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Detection  DetectionConfig  `json:"detection" yaml:"detection"`
	Annotation AnnotationConfig `json:"annotation" yaml:"annotation"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}

// DetectionConfig selects and tunes the vision backend
type DetectionConfig struct {
	Backend        string        `json:"backend" yaml:"backend"` // gemini|ollama|llamacpp
	Model          string        `json:"model" yaml:"model"`
	URL            string        `json:"url" yaml:"url"`
	APIKey         string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Target         string        `json:"target" yaml:"target"`
	ThinkingBudget int32         `json:"thinking_budget" yaml:"thinking_budget"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	SendFormat     string        `json:"send_format" yaml:"send_format"`
	SendSize       int           `json:"send_size" yaml:"send_size"`
	SendQuality    int           `json:"send_quality" yaml:"send_quality"`
	Echo           bool          `json:"echo" yaml:"echo"`
}

// AnnotationConfig holds how detections are drawn
type AnnotationConfig struct {
	Color       string `json:"color" yaml:"color"`
	StrokeWidth int    `json:"stroke_width" yaml:"stroke_width"`
	ShowLabel   bool   `json:"show_label" yaml:"show_label"`
}

// OutputConfig holds configuration for written images
type OutputConfig struct {
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	TileFormat    string `json:"tile_format" yaml:"tile_format"`
	Quality       int    `json:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" yaml:"lossless"`
	AnnotationTag string `json:"annotation_tag" yaml:"annotation_tag"`
}

// Default backend URLs
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultLlamaCppURL = "http://localhost:8080"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			Backend:        "gemini",
			Model:          "gemini-2.5-pro",
			Target:         "Chrome",
			ThinkingBudget: 256,
			Timeout:        5 * time.Minute,
			SendFormat:     "png",
			SendQuality:    85,
			Echo:           true,
		},
		Annotation: AnnotationConfig{
			Color:       "white",
			StrokeWidth: 3,
		},
		Output: OutputConfig{
			OutputDir:     ".",
			TileFormat:    "png",
			Quality:       90,
			AnnotationTag: "_anno",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as JSON or YAML depending on the extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads a .env file into the process environment if one exists.
// Variables already set are left alone.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	var existing []string
	for _, f := range filenames {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration from environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GROUNDING_BACKEND"); v != "" {
		c.Detection.Backend = v
	}
	if v := os.Getenv("GROUNDING_MODEL"); v != "" {
		c.Detection.Model = v
	}
	if v := os.Getenv("GROUNDING_URL"); v != "" {
		c.Detection.URL = v
	}
	if c.Detection.APIKey == "" {
		for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if v := os.Getenv(key); v != "" {
				c.Detection.APIKey = v
				break
			}
		}
	}
}

// BackendURL returns the configured URL or the backend's default
func (c *Config) BackendURL() string {
	if c.Detection.URL != "" {
		return c.Detection.URL
	}
	switch c.Detection.Backend {
	case "ollama":
		return DefaultOllamaURL
	case "llamacpp":
		return DefaultLlamaCppURL
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Detection.Backend {
	case "gemini", "ollama", "llamacpp":
	default:
		return fmt.Errorf("detection.backend must be one of gemini, ollama, llamacpp (got %q)", c.Detection.Backend)
	}

	if c.Detection.Model == "" {
		return fmt.Errorf("detection.model cannot be empty")
	}

	if c.Detection.Target == "" {
		return fmt.Errorf("detection.target cannot be empty")
	}

	if c.Detection.Timeout < 0 {
		return fmt.Errorf("detection.timeout cannot be negative")
	}

	switch strings.ToLower(c.Detection.SendFormat) {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("detection.send_format must be png or jpg")
	}

	if c.Detection.SendSize < 0 {
		return fmt.Errorf("detection.send_size cannot be negative")
	}

	if c.Annotation.StrokeWidth < 1 {
		return fmt.Errorf("annotation.stroke_width must be positive")
	}

	switch strings.ToLower(c.Output.TileFormat) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.tile_format must be png, jpg or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Output.AnnotationTag == "" {
		return fmt.Errorf("output.annotation_tag cannot be empty")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-grounding", "config.json")
}
