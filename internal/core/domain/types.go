package domain

import (
	"context"
)

// TextProvider defines the interface for text generation services.
// maxTokens bounds the length of the completion; providers that cannot
// enforce it treat it as a hint.
type TextProvider interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Container is a destination-side grouping unit: a folder, a key prefix or a project.
type Container struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// IsRoot reports whether c is the implicit destination root.
func (c Container) IsRoot() bool {
	return c.ID == "" && c.Path == ""
}

// Child returns the path of name below c.
func (c Container) Child(name string) string {
	if c.Path == "" {
		return name
	}
	return c.Path + "/" + name
}
