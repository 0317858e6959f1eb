package shares

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pwerrors "pwshare/pkg/errors"
	"pwshare/pkg/logger"
)

// Store reads and writes per-folder share configuration records.
//
// Each share is one JSON file <folder>.json under the config directory. The
// schema is closed: writes persist exactly the recognized fields, nothing
// else survives a round trip.
type Store struct {
	configDir string
	staticDir string
}

// NewStore creates a share config store over the given directories
func NewStore(configDir, staticDir string) *Store {
	return &Store{
		configDir: configDir,
		staticDir: staticDir,
	}
}

// configRecord is the on-disk shape of a share config. Unrecognized fields
// in the source file are dropped on write.
type configRecord struct {
	Expires      string `json:"expires"`
	PasswordHash string `json:"password"`
}

// Read loads the config for a folder. The folder argument may be a request
// path; only its first segment is used. Missing or malformed configs return
// ok == false, never an error: at the auth boundary "no config" simply means
// authentication must fail.
func (s *Store) Read(folder string) (Config, bool) {
	name := strings.SplitN(folder, "/", 2)[0]
	if !IsSafeName(name) {
		return Config{}, false
	}

	data, err := os.ReadFile(s.configPath(name))
	if err != nil {
		return Config{}, false
	}

	var rec configRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Get().Warn("malformed share config", "folder", name, "error", err)
		return Config{}, false
	}

	cfg := Config{
		Name:         name,
		Expires:      rec.Expires,
		PasswordHash: rec.PasswordHash,
	}
	cfg.DaysLeft = daysLeft(&cfg, time.Now())
	return cfg, true
}

// Write persists a share config. Only the recognized fields are written.
func (s *Store) Write(folder string, cfg Config) error {
	if !IsSafeName(folder) {
		return fmt.Errorf("%w: %q", pwerrors.ErrUnsafeName, folder)
	}

	rec := configRecord{
		Expires:      cfg.Expires,
		PasswordHash: cfg.PasswordHash,
	}
	if rec.Expires == "" {
		rec.Expires = NeverExpires
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configPath(folder), append(data, '\n'), 0o600)
}

// List returns all share configs sorted by folder name.
func (s *Store) List() ([]Config, error) {
	entries, err := os.ReadDir(s.configDir)
	if err != nil {
		return nil, err
	}

	var configs []Config
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if cfg, ok := s.Read(strings.TrimSuffix(e.Name(), ".json")); ok {
			configs = append(configs, cfg)
		}
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

func (s *Store) configPath(folder string) string {
	return filepath.Join(s.configDir, folder+".json")
}

func (s *Store) folderPath(folder string) string {
	return filepath.Join(s.staticDir, folder)
}
