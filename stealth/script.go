package stealth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed js/prelude.js
var preludeJS string

//go:embed js/webdriver.js
var webdriverJS string

//go:embed js/plugins.js
var pluginsJS string

//go:embed js/languages.js
var languagesJS string

//go:embed js/chrome.js
var chromeJS string

//go:embed js/probe.js
var probeJS string

var (
	renderOnce sync.Once
	rendered   string
)

// Source returns the masking script as a self-invoking statement. It takes no
// arguments, returns nothing, and is meant to be registered with the driver so
// it runs in every new document before page scripts do.
//
// The script overrides navigator.webdriver, navigator.plugins and
// navigator.languages with getter-only accessors and makes sure window.chrome
// carries an empty runtime object. A property the host has already locked is
// skipped silently; nothing is ever thrown into the page.
func Source() string {
	renderOnce.Do(func() {
		rendered = render(plugins, languages)
	})
	return rendered
}

// Func returns Source wrapped as an arrow function, for drivers that evaluate
// function declarations (rod's Page.Eval).
func Func() string {
	return "() => {\n" + Source() + "}"
}

// ProbeFunc returns an arrow function that reads the masked properties back
// out of a realm and returns them as a JSON string. See ParseReport.
func ProbeFunc() string {
	return strings.TrimSpace(probeJS)
}

func render(descriptors []PluginDescriptor, langs []string) string {
	body := strings.Join([]string{
		preludeJS,
		webdriverJS,
		pluginsJS,
		languagesJS,
		chromeJS,
	}, "\n")

	r := strings.NewReplacer(
		"__PLUGINS__", mustJSON(descriptors),
		"__LANGUAGES__", mustJSON(langs),
	)

	var b strings.Builder
	b.WriteString(";(function (window, navigator) {\n")
	b.WriteString(r.Replace(body))
	b.WriteString("})(globalThis, globalThis.navigator);\n")
	return b.String()
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("stealth: encode script data: %v", err))
	}
	return string(raw)
}
