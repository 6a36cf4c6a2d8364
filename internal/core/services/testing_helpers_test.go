package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedGenerator answers by the first matching instruction substring.
type scriptedGenerator struct {
	answers  map[string]string
	fallback string
	err      error
	calls    []string
}

func (g *scriptedGenerator) Generate(_ context.Context, instruction string, _ int) (string, error) {
	g.calls = append(g.calls, instruction)
	if g.err != nil {
		return "", g.err
	}
	for needle, answer := range g.answers {
		if strings.Contains(instruction, needle) {
			return answer, nil
		}
	}
	return g.fallback, nil
}

// sequenceRandom replays fixed values, cycling when exhausted.
type sequenceRandom struct {
	ints   []int
	floats []float64
	i, f   int
}

func (r *sequenceRandom) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.i%len(r.ints)]
	r.i++
	return v % n
}

func (r *sequenceRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[r.f%len(r.floats)]
	r.f++
	return v
}

// memoryDestination keeps containers in a map and fails deliveries on demand.
type memoryDestination struct {
	containers  map[string]domain.Container
	ensureCalls []string
	delivered   []domain.GeneratedArtifact
	failOn      map[int]error
	ensureErr   map[string]error
}

func newMemoryDestination() *memoryDestination {
	return &memoryDestination{
		containers: make(map[string]domain.Container),
		failOn:     make(map[int]error),
		ensureErr:  make(map[string]error),
	}
}

func (d *memoryDestination) EnsureContainer(_ context.Context, name string, parent domain.Container) (domain.Container, error) {
	path := parent.Child(name)
	d.ensureCalls = append(d.ensureCalls, path)
	if err, ok := d.ensureErr[path]; ok {
		return domain.Container{}, err
	}
	if c, ok := d.containers[path]; ok {
		return c, nil
	}
	c := domain.Container{ID: fmt.Sprintf("id-%d", len(d.containers)+1), Path: path}
	d.containers[path] = c
	return c, nil
}

func (d *memoryDestination) Deliver(_ context.Context, container domain.Container, art domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	if err, ok := d.failOn[art.Index]; ok {
		return domain.DeliveryReceipt{}, err
	}
	d.delivered = append(d.delivered, art)
	return domain.DeliveryReceipt{
		Name:     art.Name,
		Category: art.Category.Name,
		Type:     art.Type,
		Locator:  container.ID,
		Path:     container.Child(art.Name),
		Size:     art.ByteLength(),
	}, nil
}
