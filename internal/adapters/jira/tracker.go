package jira

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/adapters/scratch"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/ports"
)

var now = time.Now

const (
	commentMaxTokens = 200
	worklogMaxTokens = 150
)

// Options control project creation and the activity added to each issue.
type Options struct {
	// ProjectName, when set, creates the project before the first issue.
	ProjectName string
	Prompt      string
	// Settle is waited after each issue is created, before any activity is added.
	Settle time.Duration
	// Pacing is waited after each comment and worklog.
	Pacing time.Duration
}

// Tracker implements ports.IssueTracker. The container is the Jira project;
// every delivered artifact becomes one issue.
type Tracker struct {
	logger    *slog.Logger
	client    *Client
	site      string
	generator ports.Generator
	rnd       ports.Random
	scratch   *scratch.Dir
	opts      Options

	issueType IssueType
}

func NewTracker(logger *slog.Logger, cfg Config, generator ports.Generator, rnd ports.Random, dir *scratch.Dir, opts Options) *Tracker {
	return &Tracker{
		logger:    logger,
		client:    NewClient(cfg),
		site:      strings.TrimRight(cfg.BaseURL, "/"),
		generator: generator,
		rnd:       rnd,
		scratch:   dir,
		opts:      opts,
	}
}

// IssueTypeName is the name of the issue type resolved by EnsureContainer.
func (t *Tracker) IssueTypeName() string {
	return t.issueType.Name
}

// EnsureContainer creates the project when a project name was given (an
// existing project is not an error) and resolves the issue type to file under.
func (t *Tracker) EnsureContainer(ctx context.Context, key string, _ domain.Container) (domain.Container, error) {
	if t.opts.ProjectName != "" {
		if err := t.createProject(ctx, key); err != nil {
			t.logger.Info("project not created, assuming it exists", "key", key, "error", err)
		}
	}

	types, err := t.client.IssueTypes(ctx, key)
	if err != nil {
		return domain.Container{}, fmt.Errorf("load issue types for %s: %w", key, err)
	}
	if len(types) == 0 {
		return domain.Container{}, fmt.Errorf("project %s has no issue types", key)
	}
	t.issueType = types[0]
	for _, it := range types {
		if !it.Subtask {
			t.issueType = it
			break
		}
	}

	return domain.Container{ID: key, Path: key}, nil
}

func (t *Tracker) createProject(ctx context.Context, key string) error {
	lead, err := t.client.AccountID(ctx)
	if err != nil {
		return err
	}
	if err := t.client.CreateProject(ctx, key, t.opts.ProjectName, "Project created for: "+t.opts.Prompt, lead); err != nil {
		return err
	}
	t.logger.Info("project created", "key", key, "name", t.opts.ProjectName)
	return nil
}

// Deliver files the issue, then adds attachments, comments and worklogs.
// Only the issue creation itself can fail the item.
func (t *Tracker) Deliver(ctx context.Context, container domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	var labels []string
	if artifact.Category.Name != "" {
		labels = []string{artifact.Category.Name}
	}

	created, err := t.client.CreateIssue(ctx, container.ID, t.issueType.ID, artifact.Title, artifact.Body, labels)
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}
	key, _ := created["key"].(string)
	t.logger.Info("issue created", "key", key, "title", artifact.Title)

	if wait(ctx, t.opts.Settle) {
		t.addActivity(ctx, key, artifact.Title)
	}

	return domain.DeliveryReceipt{
		Name:     artifact.Title,
		Category: artifact.Category.Name,
		Type:     artifact.Type,
		Locator:  key,
		URL:      t.site + "/browse/" + key,
		Size:     len(artifact.Body),
		Details:  created,
	}, nil
}

func (t *Tracker) addActivity(ctx context.Context, key, title string) {
	attachments := t.rnd.IntN(2) + 1
	for i := 0; i < attachments; i++ {
		if err := t.attach(ctx, key, t.randomType(), title); err != nil {
			t.logger.Warn("failed to add attachment", "issue", key, "error", err)
		}
	}

	comments := t.rnd.IntN(4) + 1
	for i := 0; i < comments; i++ {
		if err := t.comment(ctx, key, title); err != nil {
			t.logger.Warn("failed to add comment", "issue", key, "error", err)
		}
		if !wait(ctx, t.opts.Pacing) {
			return
		}
	}

	worklogs := t.rnd.IntN(3) + 1
	for i := 0; i < worklogs; i++ {
		if err := t.worklog(ctx, key, title); err != nil {
			t.logger.Warn("failed to add worklog", "issue", key, "error", err)
		}
		if !wait(ctx, t.opts.Pacing) {
			return
		}
	}
}

func (t *Tracker) randomType() domain.ArtifactType {
	types := domain.AllFileTypes()
	return types[t.rnd.IntN(len(types))]
}

// comment posts a generated comment; 40% of comments also carry an attachment.
func (t *Tracker) comment(ctx context.Context, key, title string) error {
	withAttachment := t.rnd.Float64() > 0.6

	instruction := fmt.Sprintf("Generate a realistic Jira comment for issue: %q. Make it professional, specific, and related to the issue. Return only the comment text, no quotes or formatting.", title)
	if withAttachment {
		mentioned := strings.ToLower(t.randomType().Name)
		instruction = fmt.Sprintf("Generate a realistic Jira comment mentioning an attached %s file for issue: %q. Make it professional. Return only the comment text.", mentioned, title)
	}

	text, err := t.generator.Generate(ctx, instruction, commentMaxTokens)
	if err != nil {
		return err
	}
	if err := t.client.AddComment(ctx, key, text); err != nil {
		return err
	}

	if withAttachment {
		if err := t.attach(ctx, key, t.randomType(), "comment_"+title); err != nil {
			t.logger.Warn("failed to add comment attachment", "issue", key, "error", err)
		}
	}
	return nil
}

func (t *Tracker) worklog(ctx context.Context, key, title string) error {
	hours := t.rnd.IntN(6) + 1
	instruction := fmt.Sprintf("Generate a brief work description for %d hours of work on: %q. Make it specific and professional. Return only the description, no quotes.", hours, title)

	text, err := t.generator.Generate(ctx, instruction, worklogMaxTokens)
	if err != nil {
		return err
	}
	started := now().AddDate(0, 0, -t.rnd.IntN(7))
	return t.client.AddWorklog(ctx, key, hours, started, text)
}

// attach renders a placeholder file of type at into a scratch file and uploads it.
func (t *Tracker) attach(ctx context.Context, key string, at domain.ArtifactType, title string) error {
	f, err := t.scratch.Write(title, at.Extension, domain.RenderPlaceholder(at, title, now()))
	if err != nil {
		return err
	}
	defer f.Remove()

	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	return t.client.Attach(ctx, key, f.Path, r)
}

// wait sleeps for d and reports whether ctx is still live.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
