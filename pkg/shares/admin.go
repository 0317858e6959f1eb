package shares

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	pwerrors "pwshare/pkg/errors"
)

// HashPassword generates a bcrypt hash of the password. The hash embeds its
// own salt, so nothing beyond the hash itself needs to be stored.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// expiresIn converts a day count into an absolute stored expiry.
func expiresIn(days float64) string {
	d := time.Duration(days * 24 * float64(time.Hour))
	return FormatExpires(time.Now().Add(d))
}

// Add creates a new share. The password is required; expiresDays of "never"
// (or empty) leaves the share without a cutoff. Fails when a config already
// exists for the folder. The backing folder is created when absent.
func (s *Store) Add(folder, password, expiresDays string) (Config, error) {
	if !IsSafeName(folder) {
		return Config{}, fmt.Errorf("%w: %q", pwerrors.ErrUnsafeName, folder)
	}
	if password == "" {
		return Config{}, pwerrors.ErrPasswordRequired
	}
	if _, err := os.Stat(s.configPath(folder)); err == nil {
		return Config{}, fmt.Errorf("%w: %s (edit with `edit`)", pwerrors.ErrShareExists, folder)
	}

	cfg := Config{Expires: NeverExpires}
	if expiresDays != "" && expiresDays != NeverExpires {
		days, err := parseDays(expiresDays)
		if err != nil {
			return Config{}, err
		}
		cfg.Expires = expiresIn(days)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Config{}, err
	}
	cfg.PasswordHash = hash

	if err := s.Write(folder, cfg); err != nil {
		return Config{}, err
	}

	if _, err := os.Stat(s.folderPath(folder)); os.IsNotExist(err) {
		if err := os.Mkdir(s.folderPath(folder), 0o755); err != nil {
			return Config{}, fmt.Errorf("failed to create share folder: %w", err)
		}
	}

	saved, _ := s.Read(folder)
	return saved, nil
}

// Edit updates an existing share's password and/or expiry. Empty arguments
// leave the corresponding field untouched.
func (s *Store) Edit(folder, password, expiresDays string) (Config, error) {
	if !IsSafeName(folder) {
		return Config{}, fmt.Errorf("%w: %q", pwerrors.ErrUnsafeName, folder)
	}
	cfg, ok := s.Read(folder)
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", pwerrors.ErrShareNotFound, folder)
	}

	if expiresDays != "" {
		if expiresDays == NeverExpires {
			cfg.Expires = NeverExpires
		} else {
			days, err := parseDays(expiresDays)
			if err != nil {
				return Config{}, err
			}
			cfg.Expires = expiresIn(days)
		}
	}

	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return Config{}, err
		}
		cfg.PasswordHash = hash
	}

	if err := s.Write(folder, cfg); err != nil {
		return Config{}, err
	}

	saved, _ := s.Read(folder)
	return saved, nil
}

// Remove deletes a share config. The backing folder is removed only when
// empty; a folder with data is left in place and reported via the returned
// flag so no content is ever orphaned silently.
func (s *Store) Remove(folder string) (removedFolder bool, err error) {
	if !IsSafeName(folder) {
		return false, fmt.Errorf("%w: %q", pwerrors.ErrUnsafeName, folder)
	}
	if _, err := os.Stat(s.configPath(folder)); err != nil {
		return false, fmt.Errorf("%w: %s", pwerrors.ErrShareNotFound, folder)
	}
	if err := os.Remove(s.configPath(folder)); err != nil {
		return false, err
	}

	entries, err := os.ReadDir(s.folderPath(folder))
	if err != nil {
		// Backing folder never existed; nothing more to do.
		return false, nil
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(s.folderPath(folder)); err != nil {
		return false, err
	}
	return true, nil
}

func parseDays(s string) (float64, error) {
	days, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry day count %q: %w", s, err)
	}
	return days, nil
}
