package stealth

// PluginDescriptor is one entry of the synthesized navigator.plugins list.
type PluginDescriptor struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// Order matters: a descriptor's position is its index in the list.
var plugins = []PluginDescriptor{
	{Name: "Chrome PDF Plugin", Filename: "internal-pdf-viewer", Description: "Portable Document Format"},
	{Name: "Chrome PDF Viewer", Filename: "mhjfbmdgcfjbbpaeojofohoefgiehjai", Description: ""},
	{Name: "Native Client", Filename: "internal-nacl-plugin", Description: ""},
}

var languages = []string{"en-US", "en"}

// DefaultPlugins returns a copy of the plugin inventory reported to pages.
func DefaultPlugins() []PluginDescriptor {
	out := make([]PluginDescriptor, len(plugins))
	copy(out, plugins)
	return out
}

// DefaultLanguages returns a copy of the reported navigator.languages.
func DefaultLanguages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}
