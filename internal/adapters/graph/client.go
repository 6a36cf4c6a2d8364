// Package graph talks to Microsoft Graph drives: OneDrive for the signed-in
// user and SharePoint site document libraries.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Item is the subset of a driveItem the adapters read.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
	Size   int64  `json:"size"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a bearer-token Graph client scoped to one drive.
type Client struct {
	logger      *slog.Logger
	http        *http.Client
	baseURL     string
	token       string
	destination string
}

// ValidateToken rejects tokens that cannot be sent as a header value.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.NewValidationError("Access token is required")
	}
	for _, r := range token {
		if r < 0x20 || r == 0x7f {
			return domain.NewValidationError("Invalid access token format")
		}
	}
	return nil
}

func NewClient(logger *slog.Logger, baseURL, token, destination string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		logger:      logger,
		http:        &http.Client{Timeout: 60 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		destination: destination,
	}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DeliveryError{
			Kind:        domain.DeliveryTransient,
			Destination: c.destination,
			Message:     err.Error(),
			Err:         err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if payload == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	kind := domain.KindForStatus(resp.StatusCode)
	if body.Error.Code == "InvalidAuthenticationToken" {
		kind = domain.DeliveryAuthExpired
	}
	msg := body.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("graph returned status %d", resp.StatusCode)
	}
	return &domain.DeliveryError{
		Kind:        kind,
		Destination: c.destination,
		StatusCode:  resp.StatusCode,
		Code:        body.Error.Code,
		Message:     msg,
	}
}

func isConflict(err error) bool {
	var de *domain.DeliveryError
	return errors.As(err, &de) && de.StatusCode == http.StatusConflict
}

// EnsureFolder creates name under parentID in the drive at drivePath
// ("/me/drive", "/sites/{id}/drive"). An empty parentID means the drive root.
// An existing folder with the same name is resolved instead of duplicated.
func (c *Client) EnsureFolder(ctx context.Context, drivePath, parentID, name string) (Item, error) {
	children := drivePath + "/root/children"
	if parentID != "" {
		children = drivePath + "/items/" + url.PathEscape(parentID) + "/children"
	}

	payload := map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	}

	var created Item
	err := c.doJSON(ctx, http.MethodPost, children, payload, &created)
	if err == nil {
		return created, nil
	}
	if !isConflict(err) {
		return Item{}, err
	}

	c.logger.Debug("folder exists, resolving", "name", name, "parent", parentID)

	filter := url.Values{}
	filter.Set("$filter", fmt.Sprintf("name eq '%s'", strings.ReplaceAll(name, "'", "''")))
	var listing struct {
		Value []Item `json:"value"`
	}
	if err := c.doJSON(ctx, http.MethodGet, children+"?"+filter.Encode(), nil, &listing); err != nil {
		return Item{}, err
	}
	// $filter on name is case-insensitive; prefer the exact match.
	for _, item := range listing.Value {
		if item.Name == name {
			return item, nil
		}
	}
	if len(listing.Value) > 0 {
		return listing.Value[0], nil
	}
	return Item{}, fmt.Errorf("%w: %s", domain.ErrContainerNotFound, name)
}

// Upload writes content as fileName inside parentID using a simple upload.
func (c *Client) Upload(ctx context.Context, drivePath, parentID, fileName string, content []byte, contentType string) (Item, error) {
	path := fmt.Sprintf("%s/items/%s:/%s:/content", drivePath, url.PathEscape(parentID), url.PathEscape(fileName))
	var item Item
	if err := c.do(ctx, http.MethodPut, path, bytes.NewReader(content), contentType, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}
