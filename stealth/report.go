package stealth

import (
	"encoding/json"
	"fmt"
)

// Report is what a realm exposes for the masked properties after injection.
type Report struct {
	WebdriverPresent     bool               `json:"webdriverPresent"`
	WebdriverUndefined   bool               `json:"webdriverUndefined"`
	PluginsLength        int                `json:"pluginsLength"`
	Plugins              []PluginDescriptor `json:"plugins"`
	PluginArrayPrototype bool               `json:"pluginArrayPrototype"`
	PluginPrototype      bool               `json:"pluginPrototype"`
	Languages            []string           `json:"languages"`
	ChromePresent        bool               `json:"chromePresent"`
	ChromeRuntimeObject  bool               `json:"chromeRuntimeObject"`
	ChromeRuntimeMethods int                `json:"chromeRuntimeMethods"`
}

// ParseReport decodes the string returned by ProbeFunc.
func ParseReport(raw string) (*Report, error) {
	if raw == "" {
		return nil, fmt.Errorf("parse report: empty probe result")
	}
	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

// Verify lists every masked property whose observed value differs from what
// the script installs. An empty result means the realm is fully masked.
func (r *Report) Verify() []string {
	var issues []string

	if !r.WebdriverPresent {
		issues = append(issues, "navigator.webdriver is absent")
	} else if !r.WebdriverUndefined {
		issues = append(issues, "navigator.webdriver is not undefined")
	}

	want := DefaultPlugins()
	if r.PluginsLength != len(want) {
		issues = append(issues, fmt.Sprintf("navigator.plugins.length is %d, want %d", r.PluginsLength, len(want)))
	}
	for i, w := range want {
		if i >= len(r.Plugins) {
			issues = append(issues, fmt.Sprintf("navigator.plugins[%d] is missing", i))
			continue
		}
		if got := r.Plugins[i]; got != w {
			issues = append(issues, fmt.Sprintf("navigator.plugins[%d] is %+v, want %+v", i, got, w))
		}
	}

	if !equalStrings(r.Languages, languages) {
		issues = append(issues, fmt.Sprintf("navigator.languages is %q, want %q", r.Languages, languages))
	}

	switch {
	case !r.ChromePresent:
		issues = append(issues, "window.chrome is absent")
	case !r.ChromeRuntimeObject:
		issues = append(issues, "window.chrome.runtime is not an object")
	case r.ChromeRuntimeMethods != 0:
		issues = append(issues, fmt.Sprintf("window.chrome.runtime has %d methods, want none", r.ChromeRuntimeMethods))
	}

	return issues
}

// Partial reports whether the plugin list could not be rooted at the host's
// native Plugin/PluginArray prototypes. The values are still correct but
// prototype checks will tell the list apart from a native one.
func (r *Report) Partial() bool {
	return !r.PluginArrayPrototype || !r.PluginPrototype
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
