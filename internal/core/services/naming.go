package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/ports"
)

const (
	// ProjectNameMaxLen caps names returned by the provider.
	ProjectNameMaxLen = 25
	// FallbackNameMaxLen caps names derived straight from the prompt.
	FallbackNameMaxLen = 20

	defaultProjectName = "project"
	nameMaxTokens      = 100
)

var (
	nameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	nameSpaces     = regexp.MustCompile(`\s+`)
	nameHyphens    = regexp.MustCompile(`-{2,}`)
)

// SanitizeName reduces s to lower-case [a-z0-9-] with single hyphens, at most
// maxLen bytes, with no leading or trailing hyphen. The result may be empty.
func SanitizeName(s string, maxLen int) string {
	out := nameDisallowed.ReplaceAllString(strings.TrimSpace(s), "")
	out = nameSpaces.ReplaceAllString(out, "-")
	out = strings.ToLower(out)
	out = nameHyphens.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	if len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], "-")
	}
	return out
}

// NameExtractor turns a topic prompt into a short container-safe project name.
type NameExtractor struct {
	logger    *slog.Logger
	generator ports.Generator
}

func NewNameExtractor(logger *slog.Logger, generator ports.Generator) *NameExtractor {
	return &NameExtractor{
		logger:    logger,
		generator: generator,
	}
}

// DeriveProjectName never fails: when the provider errors or returns nothing
// usable, the name is derived from the prompt itself.
func (n *NameExtractor) DeriveProjectName(ctx context.Context, prompt string) string {
	if n.generator != nil {
		raw, err := n.generator.Generate(ctx, projectNameInstruction(prompt), nameMaxTokens)
		if err == nil {
			if name := SanitizeName(raw, ProjectNameMaxLen); name != "" {
				return name
			}
		} else {
			n.logger.Warn("project name generation failed, using prompt", "error", err)
		}
	}
	return FallbackProjectName(prompt)
}

// FallbackProjectName is the deterministic prompt-derived name.
func FallbackProjectName(prompt string) string {
	if name := SanitizeName(prompt, FallbackNameMaxLen); name != "" {
		return name
	}
	return defaultProjectName
}

func projectNameInstruction(prompt string) string {
	return fmt.Sprintf(`Extract a company name or project name from this prompt: "%s"

Return ONLY a short, clean name (2-4 words max) suitable for a folder name. If no specific company/project name is found, create a relevant project name based on the context.

Examples:
    - "Create marketing materials for TechCorp" → "TechCorp"
    - "Develop HR policies for startup" → "HR-Policies-Project"

Return only the name:`, prompt)
}
