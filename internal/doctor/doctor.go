// Package doctor runs runtime readiness diagnostics for config, tools, devices, and APIs.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/eyra/internal/audio"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/hotkey"
	"github.com/rbright/eyra/internal/ipc"
	"github.com/rbright/eyra/internal/speech"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Probes are the environment lookups Run performs, replaceable in tests.
type Probes struct {
	Keyboards func() ([]string, error)
	Sinks     func(context.Context) ([]audio.Device, error)
	HTTP      *http.Client
}

func (p Probes) withDefaults(cfg config.Config) Probes {
	if p.Keyboards == nil {
		p.Keyboards = hotkey.NewEvdev(cfg.Hotkeys.Devices, nil).Discover
	}
	if p.Sinks == nil {
		p.Sinks = audio.ListSinks
	}
	if p.HTTP == nil {
		p.HTTP = &http.Client{Timeout: 3 * time.Second}
	}
	return p
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, probes Probes) Report {
	cfg := loaded.Config
	probes = probes.withDefaults(cfg)
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		configMsg = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	checks = append(checks, checkCredentials(cfg))
	if cfg.Provider != config.ProviderMock {
		checks = append(checks, checkEndpoint(ctx, probes.HTTP, "provider.endpoint", providerBaseURL(cfg)))
	}

	checks = append(checks, checkCommand(cfg.Capture.Screenshot.Argv, "capture.screenshot"))
	checks = append(checks, checkCommand(cfg.Capture.Selfie.Argv, "capture.selfie"))

	switch cfg.Speech.Backend {
	case "command":
		checks = append(checks, checkCommand(cfg.Speech.Cmd.Argv, "speech.cmd"))
	case "cartesia":
		checks = append(checks, checkEndpoint(ctx, probes.HTTP, "speech.cartesia", speech.DefaultCartesiaBaseURL))
	}
	if cfg.Speech.Backend == "cartesia" || (cfg.Indicator.Enable && cfg.Indicator.SoundEnable) {
		checks = append(checks, checkAudioOutput(ctx, probes.Sinks))
	}

	if cfg.Hotkeys.Backend == "evdev" || cfg.Hotkeys.Backend == "both" {
		checks = append(checks, checkKeyboards(cfg.Hotkeys.Backend, probes.Keyboards))
	}
	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != "" || cfg.Hotkeys.Backend == "evdev"
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty; use `eyra switch` or `eyra chord` from your own keybinds"))

	checks = append(checks, checkSocketDir())
	if cfg.Journal.Enable {
		checks = append(checks, checkJournalDir(cfg.Journal.Path))
	}

	return Report{Checks: checks}
}

func checkCredentials(cfg config.Config) Check {
	if err := config.RequireCredentials(cfg); err != nil {
		return Check{Name: "credentials", Pass: false, Message: err.Error()}
	}
	return Check{Name: "credentials", Pass: true, Message: fmt.Sprintf("provider %s ready", cfg.Provider)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkEndpoint treats any HTTP response as reachable; auth is covered by checkCredentials.
func checkEndpoint(ctx context.Context, client *http.Client, name string, base string) Check {
	base = strings.TrimSpace(base)
	if base == "" {
		return Check{Name: name, Pass: false, Message: "base url is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, base)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable at %s", base)}
}

func providerBaseURL(cfg config.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return "https://generativelanguage.googleapis.com"
	default:
		return defaultOpenAIBaseURL
	}
}

func checkAudioOutput(ctx context.Context, sinks func(context.Context) ([]audio.Device, error)) Check {
	devices, err := sinks(ctx)
	if err != nil {
		return Check{Name: "audio.output", Pass: false, Message: err.Error()}
	}
	device, ok := audio.DefaultSink(devices)
	if !ok {
		return Check{Name: "audio.output", Pass: false, Message: "no output sink found"}
	}
	message := fmt.Sprintf("default sink %q", device.ID)
	if device.Muted {
		message += " (muted)"
	}
	return Check{Name: "audio.output", Pass: true, Message: message}
}

func checkKeyboards(backend string, discover func() ([]string, error)) Check {
	paths, err := discover()
	if err != nil {
		if errors.Is(err, hotkey.ErrNoKeyboards) && backend == "both" {
			return Check{Name: "hotkeys.evdev", Pass: true, Message: "no readable keyboards; relying on ipc chords"}
		}
		return Check{Name: "hotkeys.evdev", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hotkeys.evdev", Pass: true, Message: fmt.Sprintf("%d keyboard device(s)", len(paths))}
}

func checkSocketDir() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "ipc.socket", Pass: false, Message: err.Error()}
	}
	return Check{Name: "ipc.socket", Pass: true, Message: path}
}

func checkJournalDir(path string) Check {
	if strings.TrimSpace(path) == "" {
		return Check{Name: "journal", Pass: true, Message: "default state directory"}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "journal", Pass: false, Message: err.Error()}
	}
	return Check{Name: "journal", Pass: true, Message: path}
}
