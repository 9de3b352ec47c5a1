package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daypulse/capture/internal/adapter/entries"
	"github.com/daypulse/capture/internal/adapter/parser"
	"github.com/daypulse/capture/internal/bus"
	"github.com/daypulse/capture/internal/config"
	"github.com/daypulse/capture/internal/domain"
	"github.com/daypulse/capture/internal/policy"
	"github.com/daypulse/capture/internal/repository"
)

// stubParser returns a canned response or error and counts calls.
type stubParser struct {
	resp  *parser.ParseResponse
	err   error
	calls int
}

func (p *stubParser) Parse(ctx context.Context, req *parser.ParseRequest) (*parser.ParseResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

// stubCreator hands out sequential entity ids and counts calls per category.
type stubCreator struct {
	calls map[domain.UpdateCategory]int
	err   error
	next  int
}

func newStubCreator() *stubCreator {
	return &stubCreator{calls: map[domain.UpdateCategory]int{}}
}

func (c *stubCreator) Create(ctx context.Context, category domain.UpdateCategory, req *entries.EntryRequest) (*entries.Entity, error) {
	c.calls[category]++
	if c.err != nil {
		return nil, c.err
	}
	c.next++
	return &entries.Entity{ID: fmt.Sprintf("ent_%d", c.next)}, nil
}

func (c *stubCreator) total() int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func newTestService(t *testing.T) (*Service, *stubParser, *stubCreator) {
	t.Helper()

	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	p := &stubParser{resp: &parser.ParseResponse{Reply: "noted"}}
	c := newStubCreator()
	svc := New(store, p, c, bus.New(10), engine, &config.Config{})
	return svc, p, c
}
