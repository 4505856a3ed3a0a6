package netproto

import (
	"fmt"
	"os"
	"path/filepath"
)

// SavedSession persists the reconnect token across client restarts.
type SavedSession struct {
	ServerAddr string       `json:"serverAddr"`
	Token      SessionToken `json:"token"`
	ClientName string       `json:"clientName"`
}

func sessionFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config dir: %w", err)
	}
	return filepath.Join(home, ".config", "imbolc", "session_token.json"), nil
}

// SaveSession writes the reconnect token to the user's config directory.
func SaveSession(serverAddr string, token SessionToken, clientName string) error {
	path, err := sessionFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(SavedSession{
		ServerAddr: serverAddr,
		Token:      token,
		ClientName: clientName,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSession reads a saved session token, or nil when none exists.
func LoadSession() *SavedSession {
	path, err := sessionFilePath()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var saved SavedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil
	}
	return &saved
}

// ClearSession removes the saved session token.
func ClearSession() {
	if path, err := sessionFilePath(); err == nil {
		os.Remove(path)
	}
}
