package ports

import (
	"context"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

// Destination abstracts one delivery target (object store, tracker, drive, mailbox).
type Destination interface {
	// EnsureContainer creates name below parent, or resolves it when it
	// already exists. A zero parent means the destination root.
	EnsureContainer(ctx context.Context, name string, parent domain.Container) (domain.Container, error)

	// Deliver uploads or creates one artifact inside container.
	Deliver(ctx context.Context, container domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error)
}

// IssueTracker is a Destination that also reports which issue type it files under.
type IssueTracker interface {
	Destination
	IssueTypeName() string
}

// SiteLibrary is a Destination backed by a collaboration site with a homepage.
type SiteLibrary interface {
	Destination
	// SiteURL is the caller-facing URL of the site.
	SiteURL() string
	// UpdateHomepage retitles the site homepage. It reports false when the
	// site has no homepage to update.
	UpdateHomepage(ctx context.Context, title, description string) (bool, error)
}

// Generator turns an instruction into text.
type Generator interface {
	Generate(ctx context.Context, instruction string, maxTokens int) (string, error)
}

// Random is the source of every random routing decision.
// *math/rand/v2.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}
