// Package gmail sends generated emails, each with one generated attachment,
// through the Gmail API.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"github.com/manthysbr/connectorseed/internal/adapters/googleapis"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const destinationName = "gmail"

// DefaultRecipient receives the generated mail when the caller names nobody.
const DefaultRecipient = "test@example.com"

// NewService builds a Gmail client authorized with a caller-supplied access token.
func NewService(ctx context.Context, accessToken string, opts ...option.ClientOption) (*gmailapi.Service, error) {
	all := append([]option.ClientOption{googleapis.WithAccessToken(accessToken)}, opts...)
	svc, err := gmailapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// Mailer implements ports.Destination. Mail has no containers; every
// artifact becomes one sent message.
type Mailer struct {
	logger    *slog.Logger
	messages  *gmailapi.UsersMessagesService
	recipient string
}

func New(logger *slog.Logger, svc *gmailapi.Service, recipient string) *Mailer {
	if recipient == "" {
		recipient = DefaultRecipient
	}
	return &Mailer{
		logger:    logger,
		messages:  svc.Users.Messages,
		recipient: recipient,
	}
}

// EnsureContainer returns the zero container.
func (m *Mailer) EnsureContainer(context.Context, string, domain.Container) (domain.Container, error) {
	return domain.Container{}, nil
}

// Deliver sends artifact as one message: Title is the subject, Body the
// plain-text body and Text the attachment content.
func (m *Mailer) Deliver(ctx context.Context, _ domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	raw, err := ComposeMessage(m.recipient, artifact.Title, artifact.Body, artifact.Name, artifact.Type, []byte(artifact.Text))
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}

	sent, err := m.messages.Send("me", &gmailapi.Message{
		Raw: base64.RawURLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return domain.DeliveryReceipt{}, googleapis.Classify(destinationName, err)
	}

	m.logger.Debug("email sent", "id", sent.Id, "subject", artifact.Title)

	return domain.DeliveryReceipt{
		Name:     artifact.Title,
		Category: artifact.Category.Name,
		Type:     artifact.Type,
		Locator:  sent.Id,
		Size:     len(artifact.Body),
		Details: map[string]any{
			"id":             sent.Id,
			"subject":        artifact.Title,
			"recipient":      m.recipient,
			"attachmentName": artifact.Name,
			"attachmentType": artifact.Type.Name,
			"bodyLength":     len(artifact.Body),
		},
	}, nil
}

// ComposeMessage builds an RFC 2822 multipart/mixed message with a
// plain-text body and one base64 attachment.
func ComposeMessage(to, subject, body, attachmentName string, attachmentType domain.ArtifactType, attachment []byte) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("recipient %q contains a line break", to)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary("connectorseed-" + uuid.NewString()); err != nil {
		return nil, fmt.Errorf("set boundary: %w", err)
	}

	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="UTF-8"`},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	contentType := attachmentType.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	att, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": attachmentName})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": attachmentName})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := att.Write(wrapBase64(attachment)); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapBase64 encodes data in 76-column lines.
func wrapBase64(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	return []byte(b.String())
}
