package graph

import (
	"context"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

// Drive implements ports.Destination for one Graph drive. Containers are
// folders addressed by item id.
type Drive struct {
	client    *Client
	drivePath string
}

// NewOneDrive returns the signed-in user's drive.
func NewOneDrive(client *Client) *Drive {
	return &Drive{client: client, drivePath: "/me/drive"}
}

func (d *Drive) EnsureContainer(ctx context.Context, name string, parent domain.Container) (domain.Container, error) {
	item, err := d.client.EnsureFolder(ctx, d.drivePath, parent.ID, name)
	if err != nil {
		return domain.Container{}, err
	}
	return domain.Container{ID: item.ID, Path: parent.Child(name)}, nil
}

func (d *Drive) Deliver(ctx context.Context, container domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	item, err := d.client.Upload(ctx, d.drivePath, container.ID, artifact.Name, []byte(artifact.Text), "text/plain")
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}

	path := container.Child(artifact.Name)
	d.client.logger.Debug("file uploaded", "path", path, "id", item.ID)

	return domain.DeliveryReceipt{
		Name:     artifact.Name,
		Category: artifact.Category.Name,
		Type:     artifact.Type,
		Locator:  item.ID,
		URL:      item.WebURL,
		Path:     path,
		Size:     artifact.ByteLength(),
		Details: map[string]any{
			"name":     artifact.Name,
			"team":     artifact.Category.Name,
			"fileType": artifact.Type.Name,
			"size":     artifact.ByteLength(),
			"id":       item.ID,
			"path":     path,
			"webUrl":   item.WebURL,
		},
	}, nil
}
