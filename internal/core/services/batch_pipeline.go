package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/manthysbr/connectorseed/internal/core/ports"
)

// ItemSpec is the routing decision for one batch item.
type ItemSpec struct {
	Index    int // 1-based
	Prompt   string
	Category domain.Category
	Type     domain.ArtifactType
}

// ComposeFunc produces the artifact for one item. Destinations that need
// more than a single generation call (subject + body + attachment) supply one.
type ComposeFunc func(ctx context.Context, gen ports.Generator, item ItemSpec) (domain.GeneratedArtifact, error)

// BatchPlan parameterizes the pipeline for one destination.
type BatchPlan struct {
	Destination ports.Destination
	Prompt      string
	ItemCount   int

	// NameProject derives a project name from the prompt before containers are prepared.
	NameProject bool
	// Root is the container path from the destination root to the project
	// container. A nil Root means artifacts are delivered without a container.
	Root func(project string) []string

	Categories    []domain.Category
	ArtifactTypes []domain.ArtifactType
	// EagerContainers creates every category container before the first item.
	// A failure there is fatal; lazily created containers fail only their item.
	EagerContainers bool

	// Instruction and MaxTokens drive the default single-call composition.
	Instruction func(item ItemSpec) string
	MaxTokens   int
	// ItemName names the artifact. Defaults to "<category>_<index><ext>".
	ItemName func(item ItemSpec) string
	Compose  ComposeFunc

	// Pacing is waited after each delivered item.
	Pacing time.Duration

	// BatchID keys progress events. Empty publishes none.
	BatchID string
}

// BatchPipeline runs the generate → route → deliver loop.
type BatchPipeline struct {
	logger    *slog.Logger
	generator ports.Generator
	namer     *NameExtractor
	events    *EventBus
}

func NewBatchPipeline(logger *slog.Logger, generator ports.Generator, namer *NameExtractor) *BatchPipeline {
	return &BatchPipeline{
		logger:    logger,
		generator: generator,
		namer:     namer,
	}
}

// SetEventBus publishes progress of every batch that carries a BatchID.
func (p *BatchPipeline) SetEventBus(bus *EventBus) {
	p.events = bus
}

// Run executes plan sequentially. Per-item failures are recorded in the
// result; only precondition failures and rejected credentials are returned
// as errors. Every run with a BatchID ends with exactly one batch_finished
// event, including runs that return an error.
func (p *BatchPipeline) Run(ctx context.Context, plan BatchPlan, rnd ports.Random) (*domain.BatchResult, error) {
	result, err := p.run(ctx, plan, rnd)
	p.finish(plan.BatchID, result, err)
	return result, err
}

func (p *BatchPipeline) finish(batchID string, result *domain.BatchResult, err error) {
	if err != nil {
		p.events.Emit(batchID, EventBatchFinished, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	p.logger.Info("batch finished",
		"attempted", result.Attempted(),
		"created", result.CreatedCount,
		"failed", len(result.Failed),
	)
	p.events.Emit(batchID, EventBatchFinished, map[string]any{
		"success": result.Success,
		"created": result.CreatedCount,
		"failed":  len(result.Failed),
	})
}

func (p *BatchPipeline) run(ctx context.Context, plan BatchPlan, rnd ports.Random) (*domain.BatchResult, error) {
	if plan.Destination == nil {
		return nil, fmt.Errorf("batch plan has no destination")
	}
	if len(plan.Categories) == 0 || len(plan.ArtifactTypes) == 0 {
		return nil, fmt.Errorf("batch plan needs at least one category and one artifact type")
	}

	result := &domain.BatchResult{
		Created: []domain.DeliveryReceipt{},
		Failed:  []domain.DeliveryFailure{},
	}

	if plan.NameProject {
		result.ProjectName = p.namer.DeriveProjectName(ctx, plan.Prompt)
	}

	containers := newContainerCache(plan.Destination)
	var rootPath []string
	if plan.Root != nil {
		rootPath = plan.Root(result.ProjectName)
	}
	root, err := containers.ensure(ctx, rootPath)
	if err != nil {
		return nil, &domain.FatalBatchError{Stage: "prepare", Err: err}
	}
	result.ContainerPath = root.Path

	if plan.Root != nil && plan.EagerContainers {
		for _, cat := range plan.Categories {
			if _, err := containers.ensure(ctx, join(rootPath, cat.Path)); err != nil {
				return nil, &domain.FatalBatchError{Stage: "prepare", Err: err}
			}
		}
	}

	p.logger.Info("batch started",
		"items", plan.ItemCount,
		"project", result.ProjectName,
		"container", result.ContainerPath,
	)
	p.events.Emit(plan.BatchID, EventBatchStarted, map[string]any{
		"items":     plan.ItemCount,
		"project":   result.ProjectName,
		"container": result.ContainerPath,
	})

	for i := 0; i < plan.ItemCount; i++ {
		item := ItemSpec{
			Index:    i + 1,
			Prompt:   plan.Prompt,
			Category: plan.Categories[rnd.IntN(len(plan.Categories))],
			Type:     plan.ArtifactTypes[rnd.IntN(len(plan.ArtifactTypes))],
		}

		receipt, err := p.runItem(ctx, plan, containers, rootPath, item)
		if err != nil {
			if errors.Is(err, domain.ErrAuthExpired) {
				p.logger.Warn("credential rejected, aborting batch", "index", item.Index, "error", err)
				p.events.Emit(plan.BatchID, EventItemFailed, domain.DeliveryFailure{Index: item.Index, Error: err.Error()})
				return nil, err
			}
			p.logger.Warn("item failed", "index", item.Index, "category", item.Category.Name, "error", err)
			failure := domain.DeliveryFailure{Index: item.Index, Error: err.Error()}
			result.Failed = append(result.Failed, failure)
			p.events.Emit(plan.BatchID, EventItemFailed, failure)
			continue
		}
		result.Created = append(result.Created, receipt)
		p.events.Emit(plan.BatchID, EventItemDelivered, map[string]any{
			"index":    item.Index,
			"name":     receipt.Name,
			"category": item.Category.Name,
			"type":     item.Type.Name,
			"locator":  receipt.Locator,
		})

		if err := sleep(ctx, plan.Pacing); err != nil {
			return nil, err
		}
	}

	result.CreatedCount = len(result.Created)
	result.Success = result.CreatedCount > 0
	return result, nil
}

func (p *BatchPipeline) runItem(ctx context.Context, plan BatchPlan, containers *containerCache, rootPath []string, item ItemSpec) (domain.DeliveryReceipt, error) {
	var container domain.Container
	if plan.Root != nil {
		c, err := containers.ensure(ctx, join(rootPath, item.Category.Path))
		if err != nil {
			return domain.DeliveryReceipt{}, err
		}
		container = c
	}

	compose := plan.Compose
	if compose == nil {
		compose = p.defaultCompose(plan)
	}
	artifact, err := compose(ctx, p.generator, item)
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}
	artifact.Index = item.Index
	artifact.Category = item.Category
	artifact.Type = item.Type
	if artifact.Name == "" {
		artifact.Name = itemName(plan, item)
	}

	return plan.Destination.Deliver(ctx, container, artifact)
}

func (p *BatchPipeline) defaultCompose(plan BatchPlan) ComposeFunc {
	return func(ctx context.Context, gen ports.Generator, item ItemSpec) (domain.GeneratedArtifact, error) {
		if plan.Instruction == nil {
			return domain.GeneratedArtifact{}, fmt.Errorf("batch plan has no instruction")
		}
		text, err := gen.Generate(ctx, plan.Instruction(item), plan.MaxTokens)
		if err != nil {
			return domain.GeneratedArtifact{}, err
		}
		return domain.GeneratedArtifact{Text: text}, nil
	}
}

func itemName(plan BatchPlan, item ItemSpec) string {
	if plan.ItemName != nil {
		return plan.ItemName(item)
	}
	return fmt.Sprintf("%s_%d%s", item.Category.Name, item.Index, item.Type.Extension)
}

// containerCache memoizes container ids by path for one batch.
type containerCache struct {
	dest   ports.Destination
	byPath map[string]domain.Container
}

func newContainerCache(dest ports.Destination) *containerCache {
	return &containerCache{
		dest:   dest,
		byPath: make(map[string]domain.Container),
	}
}

// ensure creates path top-down, reusing every prefix already resolved.
func (c *containerCache) ensure(ctx context.Context, path []string) (domain.Container, error) {
	parent := domain.Container{}
	for i, name := range path {
		key := strings.Join(path[:i+1], "/")
		if cached, ok := c.byPath[key]; ok {
			parent = cached
			continue
		}
		next, err := c.dest.EnsureContainer(ctx, name, parent)
		if err != nil {
			return domain.Container{}, fmt.Errorf("ensure container %q: %w", key, err)
		}
		c.byPath[key] = next
		parent = next
	}
	return parent, nil
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// sleep waits d unconditionally unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
