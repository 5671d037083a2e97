// Package settings manages persistent user settings for the ftdconf CLI:
// the default device and, per device, the refresh token and API version of
// the last session so a new invocation can resume without a password.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Host holds the persisted state of one device session.
type Host struct {
	// RefreshToken resumes the session via the refresh_token grant.
	RefreshToken string `json:"refresh_token,omitempty"`

	// APIVersion is the version the last login succeeded with.
	APIVersion string `json:"api_version,omitempty"`

	Username string `json:"username,omitempty"`
}

// Settings holds persistent user preferences.
type Settings struct {
	// DefaultHostname is the device to use when --hostname is not specified.
	DefaultHostname string `json:"default_hostname,omitempty"`

	// Hosts keys persisted session state by device hostname.
	Hosts map[string]Host `json:"hosts,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ftdconf_settings.json"
	}
	return filepath.Join(home, ".ftdconf", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// settings, not an error.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path. Refresh tokens grant device
// access, so the file is not group or world readable.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Host returns the persisted state for a device.
func (s *Settings) Host(hostname string) Host {
	return s.Hosts[hostname]
}

// SetHost records the session state for a device.
func (s *Settings) SetHost(hostname string, h Host) {
	if s.Hosts == nil {
		s.Hosts = make(map[string]Host)
	}
	s.Hosts[hostname] = h
}

// ClearHost drops the persisted state for a device, e.g. after logout.
func (s *Settings) ClearHost(hostname string) {
	delete(s.Hosts, hostname)
}

// SetDefaultHostname sets the device used when --hostname is omitted.
func (s *Settings) SetDefaultHostname(hostname string) {
	s.DefaultHostname = hostname
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
