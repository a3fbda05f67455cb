// Package annotate writes the per-workspace context document that tells an
// agent (or a human) what the feature is, what its sessions look like and
// what it depends on.
package annotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TimHeckel/maestro/internal/config"
)

// DocumentName is the context file written into each workspace.
const DocumentName = "MAESTRO.md"

const (
	// ModeSplit replaces the context document wholesale.
	ModeSplit = "split"
	// ModeShared appends the generated section to whatever already exists.
	ModeShared = "shared"
)

// Annotate writes the context document for a feature into workDir. In split
// mode any existing document is replaced; in shared mode the generated
// section is appended without parsing the existing content.
func Annotate(feature config.Feature, workDir, mode string) error {
	doc := Render(feature)
	path := filepath.Join(workDir, DocumentName)

	if mode == ModeShared {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening context document: %w", err)
		}
		if _, err := f.WriteString(doc); err != nil {
			f.Close()
			return fmt.Errorf("appending context document: %w", err)
		}
		return f.Close()
	}

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing context document: %w", err)
	}
	return nil
}

// Render builds the context document for one feature.
func Render(feature config.Feature) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Feature: %s\n\n", feature.Name)
	if feature.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(feature.Description))
	}
	if feature.Context != "" {
		b.WriteString("## Context\n\n")
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(feature.Context))
	}

	if len(feature.Sessions) > 0 {
		b.WriteString("## Sessions\n\n")
		for _, sess := range feature.Sessions {
			fmt.Fprintf(&b, "- **%s** (%d panes)\n", sess.Name, sess.Panes)
			for i, prompt := range sess.Prompts {
				line := firstLine(prompt)
				if line == "" {
					continue
				}
				fmt.Fprintf(&b, "  - pane %d: `%s`\n", i, line)
			}
		}
		b.WriteString("\n")
	}

	if len(feature.Agents) > 0 {
		b.WriteString("## Agents\n\n")
		for _, agent := range feature.Agents {
			fmt.Fprintf(&b, "- %s\n", agent)
		}
		b.WriteString("\n")
	}

	if len(feature.Dependencies) > 0 {
		b.WriteString("## Dependencies\n\n")
		for _, dep := range feature.Dependencies {
			fmt.Fprintf(&b, "- %s\n", dep)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
