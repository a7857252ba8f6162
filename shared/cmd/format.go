package cmd

import (
	"strings"
)

// FormatSection properly indents a text section.
func FormatSection(header string, content string) string {
	var out strings.Builder

	if header != "" {
		out.WriteString(header + ":\n")
	}

	for _, line := range strings.Split(content, "\n") {
		if line != "" {
			out.WriteString("  ")
		}

		out.WriteString(line + "\n")
	}

	// A full section ends with a blank line, a partial one without newline.
	if header != "" {
		out.WriteString("\n")
		return out.String()
	}

	return strings.TrimSuffix(out.String(), "\n")
}
