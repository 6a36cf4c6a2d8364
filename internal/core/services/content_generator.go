package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

// ContentGenerator issues one provider call per instruction and trims the result.
type ContentGenerator struct {
	logger   *slog.Logger
	provider domain.TextProvider
}

func NewContentGenerator(logger *slog.Logger, provider domain.TextProvider) *ContentGenerator {
	return &ContentGenerator{
		logger:   logger,
		provider: provider,
	}
}

// Generate implements ports.Generator. Provider failures are wrapped in
// domain.ErrProvider and never retried here.
func (g *ContentGenerator) Generate(ctx context.Context, instruction string, maxTokens int) (string, error) {
	if g.provider == nil {
		return "", fmt.Errorf("%w: no provider configured", domain.ErrProvider)
	}

	text, err := g.provider.GenerateText(ctx, instruction, maxTokens)
	if err != nil {
		g.logger.Debug("generation failed", "max_tokens", maxTokens, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}

	return strings.TrimSpace(text), nil
}
