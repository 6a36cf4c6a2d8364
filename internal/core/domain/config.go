package domain

import "time"

// ProviderConfig configures the text generation backend
type ProviderConfig struct {
	Mode         string `json:"mode" yaml:"mode"`                   // "bedrock", "local" or "remote"
	Region       string `json:"region" yaml:"region"`               // AWS region for Bedrock
	ModelID      string `json:"model_id" yaml:"model_id"`           // "anthropic.claude-3-5-sonnet-20241022-v2:0"
	LocalURL     string `json:"local_url" yaml:"local_url"`         // "http://localhost:11434"
	RemoteURL    string `json:"remote_url" yaml:"remote_url"`       // "https://api.openai.com/v1"
	APIKey       string `json:"api_key" yaml:"api_key"`             // masked when logged
	DefaultModel string `json:"default_model" yaml:"default_model"` // model for local/remote modes
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// DelayConfig holds the unconditional waits destinations need between calls.
type DelayConfig struct {
	// Settle is the pause after an issue is created before sub-operations start.
	Settle time.Duration `json:"settle" yaml:"settle"`
	// Pacing is the pause after each Jira comment or worklog.
	Pacing time.Duration `json:"pacing" yaml:"pacing"`
	// FilePacing is the pause after each file delivered to S3, OneDrive,
	// Google Drive or SharePoint.
	FilePacing time.Duration `json:"file_pacing" yaml:"file_pacing"`
	// EmailPacing is the pause after each sent email.
	EmailPacing time.Duration `json:"email_pacing" yaml:"email_pacing"`
}

// DestinationConfig holds defaults for the outbound destinations
type DestinationConfig struct {
	S3Region     string `json:"s3_region" yaml:"s3_region"`
	GraphBaseURL string `json:"graph_base_url" yaml:"graph_base_url"`
	ScratchDir   string `json:"scratch_dir" yaml:"scratch_dir"`
}

// AppConfig is the main application configuration
type AppConfig struct {
	Server       ServerConfig      `json:"server" yaml:"server"`
	Provider     ProviderConfig    `json:"provider" yaml:"provider"`
	Delays       DelayConfig       `json:"delays" yaml:"delays"`
	Destinations DestinationConfig `json:"destinations" yaml:"destinations"`
}

// DefaultConfig returns safe defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
		},
		Provider: ProviderConfig{
			Mode:         "bedrock",
			Region:       "us-east-1",
			ModelID:      "anthropic.claude-3-5-sonnet-20241022-v2:0",
			LocalURL:     "http://localhost:11434",
			DefaultModel: "qwen2.5:latest",
		},
		Delays: DelayConfig{
			Settle:      2 * time.Second,
			Pacing:      500 * time.Millisecond,
			EmailPacing: time.Second,
		},
		Destinations: DestinationConfig{
			S3Region:     "us-east-2",
			GraphBaseURL: "https://graph.microsoft.com/v1.0",
		},
	}
}
