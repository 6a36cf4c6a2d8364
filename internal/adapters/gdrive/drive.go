// Package gdrive uploads generated files into a Google Drive folder tree.
package gdrive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/connectorseed/internal/adapters/googleapis"
	"github.com/manthysbr/connectorseed/internal/adapters/scratch"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	destinationName = "gdrive"
	folderMIMEType  = "application/vnd.google-apps.folder"
)

// Drive implements ports.Destination on the Drive v3 files API.
type Drive struct {
	logger  *slog.Logger
	files   *drive.FilesService
	scratch *scratch.Dir
}

// NewService builds a Drive client authorized with a caller-supplied access token.
// Extra options are appended, which lets tests point it at a local endpoint.
func NewService(ctx context.Context, accessToken string, opts ...option.ClientOption) (*drive.Service, error) {
	all := append([]option.ClientOption{googleapis.WithAccessToken(accessToken)}, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

func New(logger *slog.Logger, svc *drive.Service, dir *scratch.Dir) *Drive {
	return &Drive{
		logger:  logger,
		files:   svc.Files,
		scratch: dir,
	}
}

// EnsureContainer returns the folder named name below parent, creating it
// only when no such folder exists.
func (d *Drive) EnsureContainer(ctx context.Context, name string, parent domain.Container) (domain.Container, error) {
	parentID := "root"
	if !parent.IsRoot() {
		parentID = parent.ID
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderMIMEType, escapeQuery(parentID))
	list, err := d.files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return domain.Container{}, classify(err)
	}
	if len(list.Files) > 0 {
		return domain.Container{ID: list.Files[0].Id, Path: parent.Child(name)}, nil
	}

	folder := &drive.File{Name: name, MimeType: folderMIMEType}
	if !parent.IsRoot() {
		folder.Parents = []string{parent.ID}
	}
	created, err := d.files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return domain.Container{}, classify(err)
	}
	d.logger.Debug("folder created", "name", name, "id", created.Id)
	return domain.Container{ID: created.Id, Path: parent.Child(name)}, nil
}

// Deliver shapes the generated text for the artifact type, stages it in a
// scratch file and streams it into the container folder.
func (d *Drive) Deliver(ctx context.Context, container domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	stem := strings.TrimSuffix(artifact.Name, artifact.Type.Extension)
	data := domain.RenderGenerated(artifact.Type, stem, artifact.Text)
	f, err := d.scratch.Write(stem, artifact.Type.Extension, data)
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}
	defer f.Remove()

	r, err := f.Open()
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}
	defer r.Close()

	meta := &drive.File{Name: artifact.Name, Parents: []string{container.ID}}
	uploaded, err := d.files.Create(meta).
		Media(r, googleapi.ContentType("application/octet-stream")).
		Fields("id", "name", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return domain.DeliveryReceipt{}, classify(err)
	}

	return domain.DeliveryReceipt{
		Name:     uploaded.Name,
		Category: artifact.Category.Name,
		Type:     artifact.Type,
		Locator:  uploaded.Id,
		URL:      uploaded.WebViewLink,
		Path:     container.Path,
		Size:     len(data),
		Details: map[string]any{
			"id":     uploaded.Id,
			"name":   uploaded.Name,
			"folder": artifact.Category.Name,
			"type":   artifact.Type.Name,
			"path":   container.Path,
		},
	}, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func classify(err error) error {
	return googleapis.Classify(destinationName, err)
}
