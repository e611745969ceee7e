package pipeline

import (
	"context"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/five82/apodwall/internal/source"
)

// MockApplier implements wallpaper.Applier for testing.
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) Apply(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockFetcher implements Fetcher for testing. When Body is set, a successful
// call writes it to dest.
type MockFetcher struct {
	mock.Mock
	Body []byte
}

func (m *MockFetcher) Fetch(ctx context.Context, url, dest string) error {
	args := m.Called(ctx, url, dest)
	if err := args.Error(0); err != nil {
		return err
	}
	if m.Body != nil {
		return os.WriteFile(dest, m.Body, 0o644)
	}
	return nil
}

// stubResolver returns a fixed candidate or error.
type stubResolver struct {
	candidate source.Candidate
	err       error
	calls     int
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Resolve(context.Context) (source.Candidate, error) {
	s.calls++
	return s.candidate, s.err
}

// memState is an in-memory StateStore.
type memState struct {
	mu      sync.Mutex
	url     string
	readErr error
	sets    int
}

func (m *memState) LastURL() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, m.readErr
}

func (m *memState) SetLastURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	m.sets++
	return nil
}
