package indicator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rbright/eyra/internal/audio"
	"github.com/rbright/eyra/internal/config"
)

type cueKind int

const (
	cueShutter cueKind = iota + 1
	cueSwitch
	cueError
)

const cueSampleRate = 16000

var currentGOOS = runtime.GOOS

// systemShutterFiles lists stock camera sounds probed when no shutter file is configured.
var systemShutterFiles = map[string][]string{
	"darwin": {
		"/System/Library/Audio/UISounds/photoShutter.caf",
		"/System/Library/Audio/UISounds/PhotoShutter.caf",
		"/System/Library/Sounds/Tink.aiff",
	},
	"linux": {
		"/usr/share/sounds/freedesktop/stereo/camera-shutter.oga",
	},
}

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var (
	shutterCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 2200, duration: 18 * time.Millisecond, volume: 0.22},
		{frequencyHz: 1600, duration: 26 * time.Millisecond, volume: 0.18},
	})
	switchCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 660, duration: 70 * time.Millisecond, volume: 0.18},
		{frequencyHz: 990, duration: 90 * time.Millisecond, volume: 0.18},
	})
	errorCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 480, duration: 75 * time.Millisecond, volume: 0.18},
		{frequencyHz: 360, duration: 110 * time.Millisecond, volume: 0.18},
	})
)

var errNoCuePlayer = errors.New("no cue file player available")

func emitCue(kind cueKind, cfg config.IndicatorConfig, goos string) error {
	if path := cuePath(kind, cfg, goos); path != "" {
		if err := playCueFile(path, goos); err == nil {
			return nil
		}
	}

	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playSynthCue(samples)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig, goos string) string {
	switch kind {
	case cueShutter:
		if path := expandUserPath(cfg.ShutterFile); path != "" {
			return path
		}
		for _, candidate := range systemShutterFiles[goos] {
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		return ""
	case cueSwitch:
		return expandUserPath(cfg.SwitchFile)
	case cueError:
		return expandUserPath(cfg.ErrorFile)
	default:
		return ""
	}
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

// cuePlayer picks the first available file player for goos.
func cuePlayer(goos string, path string) ([]string, error) {
	var candidates [][]string
	switch goos {
	case "darwin":
		candidates = [][]string{{"afplay", path}}
	default:
		candidates = [][]string{
			{"pw-play", "--media-role", "Notification", path},
			{"paplay", path},
		}
	}
	for _, argv := range candidates {
		if _, err := exec.LookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, errNoCuePlayer
}

func playCueFile(path string, goos string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}
	argv, err := cuePlayer(goos, path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSynthCue(samples []int16) error {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()
	return audio.Play(ctx, audio.Clip{Samples: samples, SampleRate: cueSampleRate, MediaName: "eyra indicator cue"})
}

func cueSamples(kind cueKind) []int16 {
	switch kind {
	case cueShutter:
		return shutterCuePCM
	case cueSwitch:
		return switchCuePCM
	case cueError:
		return errorCuePCM
	default:
		return nil
	}
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gap := make([]int16, samplesForDuration(22*time.Millisecond))

	var pcm []int16
	for i, part := range parts {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(part)...)
	}
	return pcm
}

func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := min(max(n/10, 1), cueSampleRate/200) // at most 5ms
	pcm := make([]int16, n)
	for i := range n {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		t := float64(i) / cueSampleRate
		sample := math.Sin(2 * math.Pi * spec.frequencyHz * t)
		pcm[i] = int16(math.Round(sample * spec.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
