package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"textcards/internal/logger"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFont         = "go"
	DefaultFontSize     = 24
	DefaultTextColor    = "#000000"
	DefaultBackground   = "#ffffff"
	DefaultAlign        = "left"
	DefaultDelimiter    = "*"
	DefaultArchiveName  = "formatted_texts.zip"
	DefaultOutputDir    = "data/output"
	DefaultCardsPerPage = 3
)

type Config struct {
	Style  StyleConfig  `toml:"style"`
	Assets AssetsConfig `toml:"assets"`
	Export ExportConfig `toml:"export"`
	UI     UIConfig     `toml:"ui"`
}

type StyleConfig struct {
	Font               string `toml:"font"`
	BoldFont           string `toml:"bold_font"`
	FontSize           int    `toml:"font_size"`
	BoldFontSize       int    `toml:"bold_font_size"`
	Color              string `toml:"color"`
	BoldColor          string `toml:"bold_color"`
	BackgroundColor    string `toml:"background_color"`
	Transparent        bool   `toml:"transparent"`
	Align              string `toml:"align"`
	CenterHorizontally bool   `toml:"center_horizontally"`
	CenterVertically   bool   `toml:"center_vertically"`
	FrameWidth         int    `toml:"frame_width"`
	FrameHeight        int    `toml:"frame_height"`
	FitToFrame         bool   `toml:"fit_to_frame"`
	EmphasizeBold      bool   `toml:"emphasize_bold"`
	Delimiter          string `toml:"delimiter"`
}

type AssetsConfig struct {
	FontFile        string `toml:"font_file"`
	BoldFontFile    string `toml:"bold_font_file"`
	BackgroundImage string `toml:"background_image"`
}

type ExportConfig struct {
	OutputDirectory string `toml:"output_directory"`
	ArchiveName     string `toml:"archive_name"`
	Concurrency     int    `toml:"concurrency"`
	FaultBudget     int    `toml:"fault_budget"`
}

type UIConfig struct {
	CardsPerPage int `toml:"cards_per_page"`
}

// Default returns the configuration written on first run
func Default() *Config {
	return &Config{
		Style: StyleConfig{
			Font:            DefaultFont,
			BoldFont:        DefaultFont,
			FontSize:        DefaultFontSize,
			BoldFontSize:    DefaultFontSize,
			Color:           DefaultTextColor,
			BoldColor:       DefaultTextColor,
			BackgroundColor: DefaultBackground,
			Align:           DefaultAlign,
			EmphasizeBold:   true,
			Delimiter:       DefaultDelimiter,
		},
		Export: ExportConfig{
			OutputDirectory: DefaultOutputDir,
			ArchiveName:     DefaultArchiveName,
			Concurrency:     runtime.NumCPU(),
		},
		UI: UIConfig{
			CardsPerPage: DefaultCardsPerPage,
		},
	}
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := Default()
		if err := SaveConfig(configPath, defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig, nil
	}

	// Start from the defaults so booleans that are absent keep their default value
	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	applyDefaults(config)

	logger.Info("Loaded configuration", "path", configPath)
	return config, nil
}

// applyDefaults backfills values that were explicitly left empty or zero
func applyDefaults(config *Config) {
	if config.Style.Font == "" {
		config.Style.Font = DefaultFont
	}
	if config.Style.BoldFont == "" {
		config.Style.BoldFont = config.Style.Font
	}
	if config.Style.FontSize <= 0 {
		config.Style.FontSize = DefaultFontSize
	}
	if config.Style.BoldFontSize <= 0 {
		config.Style.BoldFontSize = config.Style.FontSize
	}
	if config.Style.Color == "" {
		config.Style.Color = DefaultTextColor
	}
	if config.Style.BoldColor == "" {
		config.Style.BoldColor = config.Style.Color
	}
	if config.Style.BackgroundColor == "" {
		config.Style.BackgroundColor = DefaultBackground
	}
	if config.Style.Align == "" {
		config.Style.Align = DefaultAlign
	}
	if config.Style.Delimiter == "" {
		config.Style.Delimiter = DefaultDelimiter
	}
	if config.Export.OutputDirectory == "" {
		config.Export.OutputDirectory = DefaultOutputDir
	}
	if config.Export.ArchiveName == "" {
		config.Export.ArchiveName = DefaultArchiveName
	}
	if config.Export.Concurrency <= 0 {
		config.Export.Concurrency = runtime.NumCPU()
	}
	if config.Export.FaultBudget < 0 {
		config.Export.FaultBudget = 0
	}
	if config.UI.CardsPerPage <= 0 {
		config.UI.CardsPerPage = DefaultCardsPerPage
	}
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}
