package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// commandPlaceholders lists the `{name}` placeholders each command key may use.
var commandPlaceholders = map[string][]string{
	"capture.screenshot_cmd": {"path", "monitor"},
	"capture.selfie_cmd":     {"path"},
	"speech.cmd":             {"text"},
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// parseCommand splits raw into argv and rejects placeholders key does not support.
func parseCommand(raw string, key string) (CommandConfig, error) {
	argv, err := splitArgs(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	if allowed, ok := commandPlaceholders[key]; ok {
		for _, arg := range argv {
			for _, match := range placeholderPattern.FindAllStringSubmatch(arg, -1) {
				if !slices.Contains(allowed, match[1]) {
					return CommandConfig{}, fmt.Errorf("unknown placeholder {%s}; supported: {%s}", match[1], strings.Join(allowed, "}, {"))
				}
			}
		}
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

// splitArgs tokenizes a command line with POSIX-style single/double quotes and
// backslash escapes. A quoted empty string yields an empty argument.
func splitArgs(input string) ([]string, error) {
	var (
		argv    []string
		current strings.Builder
		inWord  bool
		quote   rune
		escape  bool
	)

	for _, r := range strings.TrimSpace(input) {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\' && quote != '\'':
			escape = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, current.String())
	}
	return argv, nil
}

// command builds a CommandConfig from a built-in default.
func command(raw string) CommandConfig {
	argv, err := splitArgs(raw)
	if err != nil {
		panic(err)
	}
	return CommandConfig{Raw: raw, Argv: argv}
}
