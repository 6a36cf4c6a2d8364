package gateway

import (
	"context"
	"log/slog"

	"github.com/manthysbr/connectorseed/internal/adapters/gdrive"
	"github.com/manthysbr/connectorseed/internal/adapters/gmail"
	"github.com/manthysbr/connectorseed/internal/adapters/graph"
	"github.com/manthysbr/connectorseed/internal/adapters/jira"
	"github.com/manthysbr/connectorseed/internal/adapters/s3store"
	"github.com/manthysbr/connectorseed/internal/adapters/scratch"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/ports"
)

// Factories build one destination per request from caller-supplied credentials.
type Factories struct {
	S3         func(ctx context.Context, creds s3store.Credentials, bucket string) (ports.Destination, error)
	Jira       func(cfg jira.Config, opts jira.Options, rnd ports.Random) (ports.IssueTracker, error)
	OneDrive   func(ctx context.Context, token string) (ports.Destination, error)
	GDrive     func(ctx context.Context, token string) (ports.Destination, error)
	SharePoint func(ctx context.Context, token, siteURL string) (ports.SiteLibrary, error)
	Gmail      func(ctx context.Context, token, recipient string) (ports.Destination, error)
}

// DefaultFactories wires the real destination adapters.
func DefaultFactories(logger *slog.Logger, cfg *domain.AppConfig, generator ports.Generator, dir *scratch.Dir) Factories {
	graphBase := cfg.Destinations.GraphBaseURL

	return Factories{
		S3: func(ctx context.Context, creds s3store.Credentials, bucket string) (ports.Destination, error) {
			client, region, err := s3store.NewClient(ctx, creds, cfg.Destinations.S3Region)
			if err != nil {
				return nil, err
			}
			return s3store.New(logger.With("destination", "s3"), client, bucket, region), nil
		},
		Jira: func(jc jira.Config, opts jira.Options, rnd ports.Random) (ports.IssueTracker, error) {
			return jira.NewTracker(logger.With("destination", "jira"), jc, generator, rnd, dir, opts), nil
		},
		OneDrive: func(_ context.Context, token string) (ports.Destination, error) {
			if err := graph.ValidateToken(token); err != nil {
				return nil, err
			}
			client := graph.NewClient(logger.With("destination", "onedrive"), graphBase, token, "onedrive")
			return graph.NewOneDrive(client), nil
		},
		GDrive: func(ctx context.Context, token string) (ports.Destination, error) {
			svc, err := gdrive.NewService(ctx, token)
			if err != nil {
				return nil, err
			}
			return gdrive.New(logger.With("destination", "gdrive"), svc, dir), nil
		},
		SharePoint: func(ctx context.Context, token, siteURL string) (ports.SiteLibrary, error) {
			if err := graph.ValidateToken(token); err != nil {
				return nil, err
			}
			client := graph.NewClient(logger.With("destination", "sharepoint"), graphBase, token, "sharepoint")
			return graph.ResolveSite(ctx, client, siteURL)
		},
		Gmail: func(ctx context.Context, token, recipient string) (ports.Destination, error) {
			svc, err := gmail.NewService(ctx, token)
			if err != nil {
				return nil, err
			}
			return gmail.New(logger.With("destination", "gmail"), svc, recipient), nil
		},
	}
}
