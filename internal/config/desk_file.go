package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DeskFile is the optional TOML file that overrides the desk roster:
//
//	[desk]
//	agents = ["Agent 1", "Agent 2", "Agent 3"]
//	max-description-length = 500
type DeskFile struct {
	Desk DeskSection `toml:"desk"`
}

// DeskSection contains the overridable desk settings.
type DeskSection struct {
	Agents               []string `toml:"agents"`
	MaxDescriptionLength int      `toml:"max-description-length"`
}

// LoadDeskFileFromPath loads a desk file from a specific path.
// Returns nil file and nil error if the file doesn't exist.
func LoadDeskFileFromPath(path string) (*DeskFile, error) {
	var file DeskFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// Apply overlays the settings present in the file onto cfg.
// A nil file leaves cfg unchanged.
func (f *DeskFile) Apply(cfg *DeskConfig) {
	if f == nil {
		return
	}

	agents := make([]string, 0, len(f.Desk.Agents))
	for _, agent := range f.Desk.Agents {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			agents = append(agents, trimmed)
		}
	}
	if len(agents) > 0 {
		cfg.Agents = agents
	}

	if f.Desk.MaxDescriptionLength > 0 {
		cfg.MaxDescriptionLength = f.Desk.MaxDescriptionLength
	}
}
