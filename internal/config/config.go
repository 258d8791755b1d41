package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Engine   EngineConfig   `json:"engine"`
	Export   ExportConfig   `json:"export"`
	Document DocumentConfig `json:"document"`
	Output   OutputConfig   `json:"output"`
}

// EngineConfig holds the annotation tool settings
type EngineConfig struct {
	HighlightHeight   float64 `json:"highlight_height"`
	HighlightOpacity  float64 `json:"highlight_opacity"`
	UnderlineHeight   float64 `json:"underline_height"`
	UnderlineOpacity  float64 `json:"underline_opacity"`
	MinWidth          float64 `json:"min_width"`
	SignatureWidth    float64 `json:"signature_width"`
	SelectionGraceMS  int     `json:"selection_grace_ms"`
	DiscardDegenerate bool    `json:"discard_degenerate"`
	DefaultTool       string  `json:"default_tool"`
	DefaultColor      string  `json:"default_color"`
}

// ExportConfig holds configuration for PDF export
type ExportConfig struct {
	// PageFormat names a standard format, or "custom" to use the
	// explicit page size
	PageFormat     string  `json:"page_format"`
	PageWidthMM    float64 `json:"page_width_mm,omitempty"`
	PageHeightMM   float64 `json:"page_height_mm,omitempty"`
	Oversample     float64 `json:"oversample"`
	FileName       string  `json:"file_name"`
	MarkPageBreaks bool    `json:"mark_page_breaks"`
}

// DocumentConfig holds configuration for page loading and layout
type DocumentConfig struct {
	PageWidth        int      `json:"page_width"`
	PageGap          int      `json:"page_gap"`
	SupportedFormats []string `json:"supported_formats"`
	MinPageSize      int      `json:"min_page_size"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir      string `json:"output_dir"`
	SnapshotFormat string `json:"snapshot_format"`
	Quality        int    `json:"quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			HighlightHeight:  20,
			HighlightOpacity: 0.3,
			UnderlineHeight:  2,
			UnderlineOpacity: 1,
			MinWidth:         5,
			SignatureWidth:   2,
			SelectionGraceMS: 100,
			DefaultTool:      "select",
			DefaultColor:     "yellow",
		},
		Export: ExportConfig{
			PageFormat: "A4",
			Oversample: 2,
			FileName:   "annotated-document.pdf",
		},
		Document: DocumentConfig{
			PageWidth:        800,
			PageGap:          16,
			SupportedFormats: []string{"jpg", "jpeg", "png", "webp"},
			MinPageSize:      16,
		},
		Output: OutputConfig{
			OutputDir:      "./output",
			SnapshotFormat: "png",
			Quality:        90,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing keys keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Engine.HighlightHeight <= 0 || c.Engine.UnderlineHeight <= 0 {
		return fmt.Errorf("engine shape heights must be positive")
	}

	if !unit(c.Engine.HighlightOpacity) || !unit(c.Engine.UnderlineOpacity) {
		return fmt.Errorf("engine opacities must be between 0 and 1")
	}

	if c.Engine.MinWidth < 0 {
		return fmt.Errorf("engine.min_width cannot be negative")
	}

	if c.Engine.SignatureWidth <= 0 {
		return fmt.Errorf("engine.signature_width must be positive")
	}

	if c.Engine.SelectionGraceMS < 0 {
		return fmt.Errorf("engine.selection_grace_ms cannot be negative")
	}

	if strings.EqualFold(c.Export.PageFormat, "custom") {
		if c.Export.PageWidthMM <= 0 || c.Export.PageHeightMM <= 0 {
			return fmt.Errorf("export custom page size must be positive")
		}
	} else if c.Export.PageFormat == "" {
		return fmt.Errorf("export.page_format cannot be empty")
	}

	if c.Export.Oversample <= 0 || c.Export.Oversample > 8 {
		return fmt.Errorf("export.oversample must be in (0, 8]")
	}

	if c.Export.FileName == "" {
		return fmt.Errorf("export.file_name cannot be empty")
	}

	if c.Document.PageWidth < 1 {
		return fmt.Errorf("document.page_width must be positive")
	}

	if c.Document.PageGap < 0 {
		return fmt.Errorf("document.page_gap cannot be negative")
	}

	if len(c.Document.SupportedFormats) == 0 {
		return fmt.Errorf("document.supported_formats cannot be empty")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "doc-annotator", "config.json")
}
