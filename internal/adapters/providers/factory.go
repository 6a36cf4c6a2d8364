package providers

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/manthysbr/connectorseed/internal/adapters/llm"
	"github.com/manthysbr/connectorseed/internal/core/domain"
)

// Build creates the text provider from app configuration.
// It hides Bedrock/local/remote selection from callers.
func Build(ctx context.Context, config *domain.AppConfig) (domain.TextProvider, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}

	p := config.Provider
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	switch mode {
	case "", "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(strings.TrimSpace(p.Region)))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return llm.NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), strings.TrimSpace(p.ModelID)), nil
	case "local":
		return llm.NewOllamaProvider(normalizeOllamaBaseURL(p.LocalURL), strings.TrimSpace(p.DefaultModel)), nil
	case "remote":
		if strings.TrimSpace(p.RemoteURL) == "" {
			return nil, fmt.Errorf("provider remote_url is required when mode=remote")
		}
		return llm.NewOpenAIProvider(
			strings.TrimRight(strings.TrimSpace(p.RemoteURL), "/"),
			strings.TrimSpace(p.APIKey),
			strings.TrimSpace(p.DefaultModel),
		), nil
	default:
		return nil, fmt.Errorf("unsupported provider mode: %s", p.Mode)
	}
}

func normalizeOllamaBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return strings.TrimSuffix(trimmed, "/v1")
	}
	return trimmed
}
