package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/tags"
)

// mockJobQueue is a mock implementation of JobQueue
type mockJobQueue struct {
	mu          sync.Mutex
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, job)
	m.mu.Unlock()
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

func (m *mockJobQueue) jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.enqueued...)
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

type mockRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRefresher) CompleteRefresh(ctx context.Context) (*tags.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &tags.Snapshot{
		Trending:   tags.Trend{Tags: []string{"react"}, Analytics: []tags.TagAnalytics{{Tag: "react", Count: 1}}},
		Hot:        []string{},
		Categories: tags.Categorize([]string{"react"}, tags.DefaultCategories),
	}, nil
}
