package pipeline

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

type fakeReader struct {
	msgs     chan kafka.Message
	fetchErr error

	mu        sync.Mutex
	committed []kafka.Message
	closed    bool
}

func newFakeReader(values ...[]byte) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(values)+1)}
	for i, v := range values {
		r.msgs <- kafka.Message{Offset: int64(i), Value: v}
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type published struct {
	handler  string
	fragment spreadstat.ConfigFragment
}

type fakeSink struct {
	err       error
	published chan published
}

func newFakeSink() *fakeSink {
	return &fakeSink{published: make(chan published, 16)}
}

func (s *fakeSink) Publish(_ context.Context, handler string, fragment spreadstat.ConfigFragment) error {
	if s.err != nil {
		return s.err
	}
	s.published <- published{handler: handler, fragment: fragment}
	return nil
}

type fakeWriter struct {
	err    error
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
