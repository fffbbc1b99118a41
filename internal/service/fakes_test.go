package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Skotchmaster/finance_tracker/internal/events"
	"github.com/Skotchmaster/finance_tracker/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
	fail    bool
}

func (i *recordingIndexer) IndexTransaction(_ context.Context, t *models.Transaction) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fail {
		return errors.New("es down")
	}
	i.indexed = append(i.indexed, t.ID)
	return nil
}

func (i *recordingIndexer) DeleteTransaction(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fail {
		return errors.New("es down")
	}
	i.deleted = append(i.deleted, id)
	return nil
}

func ptr[T any](v T) *T { return &v }
