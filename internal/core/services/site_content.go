package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/ports"
)

const (
	homepageMaxTokens  = 600
	homepagePreviewLen = 200
)

type HomepageUpdate struct {
	Updated bool   `json:"updated"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type NavigationLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type NavigationUpdate struct {
	Updated bool             `json:"updated"`
	Links   []NavigationLink `json:"links"`
}

// SiteUpdates reports the optional site refresh separately from file delivery.
type SiteUpdates struct {
	Homepage   *HomepageUpdate   `json:"homepage,omitempty"`
	Navigation *NavigationUpdate `json:"navigation,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// SiteContentUpdater refreshes a site's homepage for a generated project.
type SiteContentUpdater struct {
	logger    *slog.Logger
	generator ports.Generator
}

func NewSiteContentUpdater(logger *slog.Logger, generator ports.Generator) *SiteContentUpdater {
	return &SiteContentUpdater{
		logger:    logger,
		generator: generator,
	}
}

// Update generates a homepage overview, retitles the homepage and builds
// navigation links to the team folders. It never fails; a failing step is
// reported in SiteUpdates.Error and stops the remaining steps.
func (u *SiteContentUpdater) Update(ctx context.Context, site ports.SiteLibrary, prompt, project, projectFolder string) SiteUpdates {
	var out SiteUpdates

	overview, err := u.generator.Generate(ctx, fmt.Sprintf(
		`Create a professional SharePoint homepage overview for project: "%s". Include project description, key objectives, and team structure. Write 200-300 words in HTML format:`,
		prompt), homepageMaxTokens)
	if err != nil {
		u.logger.Warn("homepage generation failed", "error", err)
		out.Error = err.Error()
		return out
	}

	title := project + " - Project Overview"
	updated, err := site.UpdateHomepage(ctx, title, "Generated content for "+project)
	if err != nil {
		u.logger.Warn("homepage update failed", "error", err)
		out.Error = err.Error()
		return out
	}
	if len(overview) > homepagePreviewLen {
		overview = strings.ToValidUTF8(overview[:homepagePreviewLen], "") + "..."
	}
	out.Homepage = &HomepageUpdate{Updated: updated, Title: title, Content: overview}

	links := make([]NavigationLink, 0, len(SharePointTeams))
	for _, team := range SharePointTeams {
		links = append(links, NavigationLink{
			Name: team,
			URL:  fmt.Sprintf("%s/Shared Documents/%s/%s", site.SiteURL(), projectFolder, team),
		})
	}
	out.Navigation = &NavigationUpdate{Updated: true, Links: links}
	return out
}
