// Package config loads the DCP configuration document: JSON on disk,
// a missing file returns defaults rather than an error.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PruningSummary controls notification verbosity.
type PruningSummary string

const (
	SummaryOff      PruningSummary = "off"
	SummaryMinimal  PruningSummary = "minimal"
	SummaryDetailed PruningSummary = "detailed"
)

// NotificationType selects the UI channel for notifications.
type NotificationType string

const (
	NotifyToast   NotificationType = "toast"
	NotifyMessage NotificationType = "message"
)

// ToolConfig holds per-tool knobs shared by prune/distill/compress.
type ToolConfig struct {
	Enabled           bool   `json:"enabled"`
	Permission        string `json:"permission,omitempty"`
	ShowDistillation  bool   `json:"showDistillation,omitempty"`
	ShowCompression   bool   `json:"showCompression,omitempty"`
}

// ToolsSettings holds cross-tool behavior knobs.
type ToolsSettings struct {
	ProtectedTools []string `json:"protectedTools,omitempty"`
	NudgeEnabled   bool     `json:"nudgeEnabled"`
	NudgeFrequency int      `json:"nudgeFrequency"`
}

// StrategyToggle enables/disables one strategy-pipeline stage.
type StrategyToggle struct {
	Enabled bool `json:"enabled"`
}

// Strategies holds the three pipeline stage toggles plus purge-errors' age threshold.
type Strategies struct {
	Deduplication   StrategyToggle `json:"deduplication"`
	SupersedeWrites StrategyToggle `json:"supersedeWrites"`
	PurgeErrors     struct {
		StrategyToggle
		Turns int `json:"turns"`
	} `json:"purgeErrors"`
}

// ManualMode controls whether automatic strategies run at all.
type ManualMode struct {
	Enabled             bool `json:"enabled"`
	AutomaticStrategies bool `json:"automaticStrategies"`
}

// Commands toggles registration of the /dcp command family.
type Commands struct {
	Enabled bool `json:"enabled"`
}

// ModelSelection configures the on-idle model-assisted pruning picker:
// an optional provider/model override, and the strictness/toast
// behavior around capability-check fallback.
type ModelSelection struct {
	OverrideProvider     string `json:"overrideProvider,omitempty"`
	OverrideModel        string `json:"overrideModel,omitempty"`
	StrictModelSelection bool   `json:"strictModelSelection,omitempty"`
	ShowModelErrorToasts bool   `json:"showModelErrorToasts"`
}

// Config is the full configuration document.
type Config struct {
	Enabled                bool             `json:"enabled"`
	Debug                  bool             `json:"debug"`
	PruningSummary         PruningSummary   `json:"pruningSummary"`
	PruneNotificationType  NotificationType `json:"pruneNotificationType"`
	ProtectedFilePatterns  []string         `json:"protectedFilePatterns,omitempty"`
	Tools                  ToolsByName      `json:"tools"`
	Strategies             Strategies       `json:"strategies"`
	ManualModeConfig       ManualMode       `json:"manualMode"`
	CommandsConfig         Commands         `json:"commands"`
	ModelSelection         ModelSelection   `json:"modelSelection"`
}

// ToolsByName groups per-tool config plus the shared settings block.
type ToolsByName struct {
	Prune    ToolConfig    `json:"prune"`
	Distill  ToolConfig    `json:"distill"`
	Compress ToolConfig    `json:"compress"`
	Settings ToolsSettings `json:"settings"`
}

// Default returns the engine's built-in defaults, used whenever a
// field is absent from the config document so the document stays
// forward/backward compatible across version upgrades.
func Default() Config {
	return Config{
		Enabled:               true,
		Debug:                 false,
		PruningSummary:        SummaryMinimal,
		PruneNotificationType: NotifyMessage,
		Tools: ToolsByName{
			Prune:    ToolConfig{Enabled: true},
			Distill:  ToolConfig{Enabled: true, ShowDistillation: true},
			Compress: ToolConfig{Enabled: true, ShowCompression: true},
			Settings: ToolsSettings{
				NudgeEnabled:   true,
				NudgeFrequency: 8,
			},
		},
		Strategies: Strategies{
			Deduplication:   StrategyToggle{Enabled: true},
			SupersedeWrites: StrategyToggle{Enabled: true},
			PurgeErrors: struct {
				StrategyToggle
				Turns int `json:"turns"`
			}{StrategyToggle: StrategyToggle{Enabled: true}, Turns: 3},
		},
		ManualModeConfig: ManualMode{Enabled: false, AutomaticStrategies: true},
		CommandsConfig:   Commands{Enabled: true},
		ModelSelection:   ModelSelection{ShowModelErrorToasts: true},
	}
}

// Manager loads/saves the config document from a fixed path.
type Manager struct {
	path string
}

// NewManager creates a manager rooted at a config directory; the
// document lives at <configDir>/dcp.json.
func NewManager(configDir string) *Manager {
	return &Manager{path: filepath.Join(configDir, "dcp.json")}
}

// Path returns the absolute path to the config document.
func (m *Manager) Path() string { return m.path }

// Load reads the config document, merging onto defaults so missing
// fields fall back rather than zeroing out booleans that default true.
func (m *Manager) Load() (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config json: %w", err)
	}
	return cfg, nil
}

// Save writes the config document to disk.
func (m *Manager) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(m.path, data, 0600)
}

// Exists reports whether the config document has been written.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return !os.IsNotExist(err)
}
