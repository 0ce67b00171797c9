package config

import (
	"os"
	"strings"
)

// SettingSource represents where a setting's value comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one setting that needs operator attention.
type SettingStatus struct {
	Name    string        `json:"name"`
	Source  SettingSource `json:"source"`
	Value   string        `json:"value"`
	OK      bool          `json:"ok"`
	Warning string        `json:"warning,omitempty"`
}

const defaultUserAgent = "fraudscope/1.0 (contact@example.com)"

// CheckSettings reports on settings the operator should review before
// talking to EDGAR.
func CheckSettings(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkUserAgent(cfg.SEC.UserAgent),
		checkSetting("Cache directory", cfg.Cache.Dir, EnvPrefix+"_CACHE_DIR", ""),
	}
}

func checkUserAgent(ua string) SettingStatus {
	s := checkSetting("SEC User-Agent", ua, EnvPrefix+"_SEC_USER_AGENT", defaultUserAgent)
	s.Value = maskContact(ua)
	switch {
	case !s.OK:
	case s.Source == SourceDefault:
		s.OK = false
		s.Warning = "set sec.user_agent to your own name and contact email"
	case !strings.Contains(ua, "@"):
		s.OK = false
		s.Warning = "SEC requires a contact email in the User-Agent"
	}
	return s
}

// checkSetting checks if a value is set and where it came from.
func checkSetting(name, value, envVar, def string) SettingStatus {
	s := SettingStatus{Name: name, Value: value, OK: value != ""}
	switch {
	case value == "":
		s.Source = SourceDefault
		s.Warning = "not set"
	case os.Getenv(envVar) != "":
		s.Source = SourceEnv
	case value == def:
		s.Source = SourceDefault
	default:
		s.Source = SourceConfig
	}
	return s
}

// maskContact hides the local part of any email address in s, keeping
// its first character: "Jane j***@corp.com".
func maskContact(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		at := strings.Index(f, "@")
		if at <= 0 {
			continue
		}
		start := 0
		for start < at && strings.ContainsRune("(<", rune(f[start])) {
			start++
		}
		if start >= at {
			continue
		}
		fields[i] = f[:start+1] + "***" + f[at:]
	}
	return strings.Join(fields, " ")
}
