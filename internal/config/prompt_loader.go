package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultPromptDir is the subdirectory within the user's home directory.
const defaultPromptDir = ".config/ticketclassifier/prompts"

// LoadSystemPrompt resolves and reads the system prompt override. An empty
// configuredPath means no override and returns "". Absolute paths and paths
// that exist relative to the working directory are used as given; other
// relative names are looked up in ~/.config/ticketclassifier/prompts/.
func LoadSystemPrompt(configuredPath string) (string, error) {
	if strings.TrimSpace(configuredPath) == "" {
		return "", nil
	}

	finalPath := configuredPath
	if !filepath.IsAbs(configuredPath) {
		if _, err := os.Stat(configuredPath); err != nil {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get user home directory: %w", err)
			}
			finalPath = filepath.Join(homeDir, defaultPromptDir, configuredPath)
		}
	}

	promptBytes, err := os.ReadFile(finalPath)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file '%s': %w", finalPath, err)
	}
	prompt := strings.TrimSpace(string(promptBytes))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file '%s' is empty", finalPath)
	}
	return prompt, nil
}
