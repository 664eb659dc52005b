package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Roster maps transport user ids to canonical display names. Users absent
// from the roster are still served under whatever name their transport
// supplies.
type Roster struct {
	Users map[string]string `yaml:"users"`
}

// LoadRoster reads the roster file at path. An empty path yields an empty
// roster, not an error: the roster is optional.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return &Roster{Users: map[string]string{}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	if roster.Users == nil {
		roster.Users = map[string]string{}
	}
	return &roster, nil
}

// DisplayName resolves userID to its roster name, falling back to the
// transport-supplied name, then to the id itself.
func (r *Roster) DisplayName(userID, fallback string) string {
	if name, ok := r.Users[userID]; ok && name != "" {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return userID
}
