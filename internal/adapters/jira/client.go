// Package jira files generated issues, with attachments, comments and
// worklogs, through the Jira Cloud REST v3 API.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

const destinationName = "jira"

// Config is the caller-supplied site and credential.
type Config struct {
	BaseURL    string `json:"baseUrl"`
	Email      string `json:"email"`
	APIToken   string `json:"apiToken"`
	ProjectKey string `json:"projectKey"`
}

// Validate reports the first missing field.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return domain.NewValidationError("jiraConfig.baseUrl is required")
	case c.Email == "":
		return domain.NewValidationError("jiraConfig.email is required")
	case c.APIToken == "":
		return domain.NewValidationError("jiraConfig.apiToken is required")
	}
	return nil
}

// IssueType is one entry of a project's issueTypes list.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

type project struct {
	Key        string      `json:"key"`
	IssueTypes []IssueType `json:"issueTypes"`
}

// Client is a Basic-auth REST client for one Jira site.
type Client struct {
	http    *http.Client
	baseURL string
	auth    string
}

func NewClient(cfg Config) *Client {
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken))
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/rest/api/3",
		auth:    "Basic " + creds,
	}
}

// adf wraps plain text in a single-paragraph Atlassian document.
func adf(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DeliveryError{
			Kind:        domain.DeliveryTransient,
			Destination: destinationName,
			Message:     err.Error(),
			Err:         err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode jira response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// statusError turns a non-2xx response into a classified DeliveryError,
// keeping Jira's errorMessages/errors text when present.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	_ = json.Unmarshal(raw, &body)

	parts := append([]string{}, body.ErrorMessages...)
	for field, msg := range body.Errors {
		parts = append(parts, field+": "+msg)
	}
	msg := strings.Join(parts, "; ")
	if msg == "" {
		msg = fmt.Sprintf("jira returned status %d", resp.StatusCode)
	}
	return &domain.DeliveryError{
		Kind:        domain.KindForStatus(resp.StatusCode),
		Destination: destinationName,
		StatusCode:  resp.StatusCode,
		Message:     msg,
	}
}

// AccountID returns the account id of the authenticated user.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	var me struct {
		AccountID string `json:"accountId"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/myself", nil, &me); err != nil {
		return "", err
	}
	return me.AccountID, nil
}

// CreateProject creates a software project led by leadAccountID.
func (c *Client) CreateProject(ctx context.Context, key, name, description, leadAccountID string) error {
	return c.doJSON(ctx, http.MethodPost, "/project", map[string]any{
		"key":            key,
		"name":           name,
		"projectTypeKey": "software",
		"description":    description,
		"leadAccountId":  leadAccountID,
	}, nil)
}

// IssueTypes lists the issue types available in the project.
func (c *Client) IssueTypes(ctx context.Context, key string) ([]IssueType, error) {
	var p project
	if err := c.doJSON(ctx, http.MethodGet, "/project/"+url.PathEscape(key), nil, &p); err != nil {
		return nil, err
	}
	return p.IssueTypes, nil
}

// CreateIssue files an issue and returns the raw created-issue object.
func (c *Client) CreateIssue(ctx context.Context, projectKey, issueTypeID, summary, description string, labels []string) (map[string]any, error) {
	if labels == nil {
		labels = []string{}
	}
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]any{"key": projectKey},
			"summary":     summary,
			"description": adf(description),
			"issuetype":   map[string]any{"id": issueTypeID},
			"labels":      labels,
		},
	}
	var created map[string]any
	if err := c.doJSON(ctx, http.MethodPost, "/issue", payload, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// AddComment posts a plain-text comment.
func (c *Client) AddComment(ctx context.Context, issueKey, text string) error {
	return c.doJSON(ctx, http.MethodPost, "/issue/"+url.PathEscape(issueKey)+"/comment",
		map[string]any{"body": adf(text)}, nil)
}

// AddWorklog logs hours of work started at the given time.
func (c *Client) AddWorklog(ctx context.Context, issueKey string, hours int, started time.Time, text string) error {
	return c.doJSON(ctx, http.MethodPost, "/issue/"+url.PathEscape(issueKey)+"/worklog", map[string]any{
		"timeSpent": fmt.Sprintf("%dh", hours),
		"started":   started.UTC().Format("2006-01-02T15:04:05.000+0000"),
		"comment":   adf(text),
	}, nil)
}

// Attach uploads the file at path as a multipart "file" field.
func (c *Client) Attach(ctx context.Context, issueKey, path string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to copy attachment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/issue/"+url.PathEscape(issueKey)+"/attachments", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")
	return c.send(req, nil)
}
