package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"ticketclassifier/pkg/categorizer"
)

// ParseCase reads the --case flag. An unset or empty flag selects case 1.
func ParseCase(flags *pflag.FlagSet) (categorizer.Case, error) {
	raw, _ := flags.GetString("case")
	if strings.TrimSpace(raw) == "" {
		return categorizer.CaseSingle, nil
	}
	c, err := categorizer.ParseCase(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --case: %w", err)
	}
	return c, nil
}

// RequiredPath returns the trimmed value of a path flag, or an error naming
// the flag when it is empty.
func RequiredPath(flags *pflag.FlagSet, name string) (string, error) {
	path, _ := flags.GetString(name)
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return path, nil
}
