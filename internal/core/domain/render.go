package domain

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"
)

// 1x1 pixel images used wherever an image type is requested.
const (
	placeholderPNG  = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8/5+hHgAHggJ/PchI7wAAAABJRU5ErkJggg=="
	placeholderJPEG = "/9j/4AAQSkZJRgABAQEAYABgAAD/2wBDAAEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQH/2wBDAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQH/wAARCAABAAEDASIAAhEBAxEB/8QAFQABAQAAAAAAAAAAAAAAAAAAAAv/xAAUEAEAAAAAAAAAAAAAAAAAAAAA/8QAFQEBAQAAAAAAAAAAAAAAAAAAAAX/xAAUEQEAAAAAAAAAAAAAAAAAAAAA/9oADAMBAAIRAxEAPwA/wA=="
)

func placeholderImage(t ArtifactType) []byte {
	src := placeholderPNG
	if t.Name == "JPEG" {
		src = placeholderJPEG
	}
	data, _ := base64.StdEncoding.DecodeString(src)
	return data
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func svgCard(label string) string {
	return fmt.Sprintf(`<svg width="200" height="100" xmlns="http://www.w3.org/2000/svg"><rect width="200" height="100" fill="#4f46e5"/><text x="10" y="30" fill="white" font-size="12">%s</text></svg>`, html.EscapeString(label))
}

// RenderGenerated shapes generated text into the file body for t.
// Text formats pass through; tabular formats wrap the text in a one-row
// table; image formats ignore the text entirely.
func RenderGenerated(t ArtifactType, name, content string) []byte {
	if t.Binary() {
		return placeholderImage(t)
	}
	switch t.Name {
	case "TXT", "MARKDOWN", "HTML", "RST":
		return []byte(content)
	case "CSV":
		return []byte(fmt.Sprintf("Title,Description,Content\n%s,\"Generated file\",%s", csvQuote(name), csvQuote(content)))
	case "TSV":
		return []byte(fmt.Sprintf("Title\tDescription\tContent\n%s\tGenerated file\t%s", name, content))
	case "SVG":
		return []byte(svgCard(name))
	default:
		return []byte(content)
	}
}

// RenderPlaceholder builds a synthetic file for t that only references title.
// Used for attachments that carry no generated content.
func RenderPlaceholder(t ArtifactType, title string, at time.Time) []byte {
	if t.Binary() {
		return placeholderImage(t)
	}
	stamp := at.UTC().Format(time.RFC3339)
	switch t.Name {
	case "TXT", "MARKDOWN", "HTML", "RST":
		return []byte(fmt.Sprintf("# %s\n\nThis is a sample %s file for the issue.\nGenerated on: %s\n\nContent related to: %s",
			title, t.Name, stamp, title))
	case "CSV":
		return []byte(fmt.Sprintf("Title,Description,Status\n%s,\"Sample data\",\"In Progress\"\n\"Related Item\",\"Additional info\",\"Done\"", csvQuote(title)))
	case "TSV":
		return []byte(fmt.Sprintf("Title\tDescription\tStatus\n%s\tSample data\tIn Progress\nRelated Item\tAdditional info\tDone", title))
	case "SVG":
		return []byte(svgCard(title))
	default:
		return []byte(fmt.Sprintf("Sample %s file for: %s\nGenerated: %s", t.Name, title, stamp))
	}
}
