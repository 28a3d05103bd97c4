package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultSystemPrompt seeds the first turn of every conversation.
const DefaultSystemPrompt = "You are Eyra, a highly helpful AI assistant with the ability to understand and analyze both text and images. " +
	"Your primary role is to assist users by interpreting the content of the screenshots or selfies they provide and answering any related questions they may have. " +
	"Ensure your responses are clear, accurate, and supportive to enhance the user's understanding and experience."

// DefaultLivePrompt is appended as the user turn of every Live cycle.
const DefaultLivePrompt = "Tell me what you see generally in the photo. Keep it short. Max 20 words."

var (
	goos      = runtime.GOOS
	lookupEnv = os.LookupEnv
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	screenshot, selfie, speak := defaultCommands()

	return Config{
		Provider:     ProviderOpenAI,
		Model:        "gpt-4o",
		MaxTokens:    300,
		TimeoutMS:    60000,
		SystemPrompt: DefaultSystemPrompt,
		ImagePath:    filepath.Join(os.TempDir(), "eyra-capture.jpg"),
		Capture: CaptureConfig{
			Screenshot:  command(screenshot),
			Selfie:      command(selfie),
			MaxWidth:    800,
			MaxHeight:   600,
			JPEGQuality: 70,
		},
		Speech: SpeechConfig{
			Backend:       "command",
			Cmd:           command(speak),
			CartesiaModel: "sonic-3",
			Voice:         "a0e99841-438c-4a64-b679-ae501e7d6091",
		},
		Live: LiveConfig{
			Prompt:     DefaultLivePrompt,
			IntervalMS: 500,
		},
		Hotkeys: HotkeyConfig{
			Backend:  "both",
			ToLive:   "shift+ctrl+m",
			ToManual: "shift+ctrl+l",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        defaultIndicatorBackend(),
			DesktopAppName: "eyra",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Journal: JournalConfig{Enable: true},
	}
}

func defaultCommands() (screenshot, selfie, speak string) {
	switch goos {
	case "darwin":
		return "screencapture -x {path}", "imagesnap {path}", "say -r 178 {text}"
	case "windows":
		return "", "", `powershell -NoProfile -Command "Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('{text}')"`
	default:
		shot := "grim {path}"
		if inHyprland() {
			shot = "grim -o {monitor} {path}"
		}
		return shot, "ffmpeg -loglevel error -y -f v4l2 -i /dev/video0 -frames:v 1 {path}", "espeak -s 80 {text}"
	}
}

func defaultIndicatorBackend() string {
	if goos == "linux" && inHyprland() {
		return "hypr"
	}
	if goos == "linux" {
		return "desktop"
	}
	return "none"
}

func inHyprland() bool {
	value, ok := lookupEnv("HYPRLAND_INSTANCE_SIGNATURE")
	return ok && strings.TrimSpace(value) != ""
}
