package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/five82/apodwall/internal/download"
	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/source"
	"github.com/five82/apodwall/internal/state"
)

const todayURL = "https://apod.nasa.gov/apod/image/2401/horse_hd.jpg"

func newTestPipeline(t *testing.T, r source.Resolver, st StateStore, f Fetcher, a *MockApplier) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := New(r, st, f, a, dir)
	require.NoError(t, err)
	return p, dir
}

func TestNew_RequiresCollaborators(t *testing.T) {
	r := &stubResolver{}
	st := &memState{}
	f := &MockFetcher{}
	a := &MockApplier{}

	_, err := New(nil, st, f, a, "/tmp")
	assert.Error(t, err)
	_, err = New(r, nil, f, a, "/tmp")
	assert.Error(t, err)
	_, err = New(r, st, nil, a, "/tmp")
	assert.Error(t, err)
	_, err = New(r, st, f, nil, "/tmp")
	assert.Error(t, err)
	_, err = New(r, st, f, a, "  ")
	assert.Error(t, err)
}

func TestRun_AppliesNewImageAndCommits(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{Primary: todayURL, Title: "Horsehead"}}
	st := &memState{url: "https://apod.nasa.gov/apod/image/2401/yesterday.jpg"}
	f := &MockFetcher{Body: []byte("jpeg")}
	a := &MockApplier{}
	p, dir := newTestPipeline(t, r, st, f, a)

	dest := filepath.Join(dir, "apod_image.jpg")
	f.On("Fetch", mock.Anything, todayURL, dest).Return(nil).Once()
	a.On("Apply", mock.Anything, dest).Return(nil).Once()

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, dest, res.Path)
	assert.Equal(t, "Horsehead", res.Title)
	assert.Equal(t, todayURL, st.url)
	f.AssertExpectations(t)
	a.AssertExpectations(t)
}

func TestRun_IsIdempotent(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{Primary: todayURL}}
	st := state.NewFile(filepath.Join(t.TempDir(), "state.toml"))
	f := &MockFetcher{Body: []byte("jpeg")}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)

	f.On("Fetch", mock.Anything, todayURL, mock.Anything).Return(nil).Once()
	a.On("Apply", mock.Anything, mock.Anything).Return(nil).Once()

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, first.Outcome)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, second.Outcome)

	got, err := st.LastURL()
	require.NoError(t, err)
	assert.Equal(t, todayURL, got)
	f.AssertNumberOfCalls(t, "Fetch", 1)
	a.AssertNumberOfCalls(t, "Apply", 1)
}

func TestRun_URLComparisonIsExact(t *testing.T) {
	upper := "https://apod.nasa.gov/apod/image/2401/Horse_HD.jpg"
	r := &stubResolver{candidate: source.Candidate{Primary: upper}}
	st := &memState{url: todayURL}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)

	f.On("Fetch", mock.Anything, upper, mock.Anything).Return(nil).Once()
	a.On("Apply", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
}

func TestRun_FallbackURLUsedWhenPrimaryEmpty(t *testing.T) {
	fallback := "https://x/img.png"
	r := &stubResolver{candidate: source.Candidate{Primary: "", Fallback: fallback}}
	st := &memState{}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, dir := newTestPipeline(t, r, st, f, a)

	dest := filepath.Join(dir, "apod_image.png")
	f.On("Fetch", mock.Anything, fallback, dest).Return(nil).Once()
	a.On("Apply", mock.Anything, dest).Return(nil).Once()

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallback, res.URL)
	assert.Equal(t, fallback, st.url)
}

func TestRun_NoCandidateSkips(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{MediaType: "video"}}
	st := &memState{url: todayURL}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCandidate, res.Outcome)
	assert.Equal(t, todayURL, st.url)
	f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	a.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRun_ExtensionFilter(t *testing.T) {
	cases := []struct {
		url  string
		want Outcome
	}{
		{"https://www.youtube.com/embed/abc?rel=0", OutcomeUnsupported},
		{"https://x/anim.gif", OutcomeUnsupported},
		{"https://x/pic.jpeg", OutcomeUnsupported},
		{"https://x/pic.tif", OutcomeUnsupported},
		{"https://x/PIC.JPG", OutcomeApplied},
		{"https://x/pic.Png?size=large", OutcomeApplied},
		{"https://x/pic.bmp#frag", OutcomeApplied},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			r := &stubResolver{candidate: source.Candidate{Primary: tc.url}}
			st := &memState{}
			f := &MockFetcher{}
			a := &MockApplier{}
			p, _ := newTestPipeline(t, r, st, f, a)
			f.On("Fetch", mock.Anything, tc.url, mock.Anything).Return(nil).Maybe()
			a.On("Apply", mock.Anything, mock.Anything).Return(nil).Maybe()

			res, err := p.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Outcome)
			if tc.want == OutcomeUnsupported {
				f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
				assert.Equal(t, 0, st.sets)
			}
		})
	}
}

func TestRun_ResolverErrorPropagates(t *testing.T) {
	r := &stubResolver{err: fault.New(fault.SourceUnavailable, "resolve api", "timeout")}
	st := &memState{url: todayURL}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)

	_, err := p.Run(context.Background())
	assert.Equal(t, fault.SourceUnavailable, fault.KindOf(err))
	assert.Equal(t, 0, st.sets)
}

func TestRun_StateReadErrorTreatedAsEmpty(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{Primary: todayURL}}
	st := &memState{readErr: os.ErrPermission}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)
	f.On("Fetch", mock.Anything, todayURL, mock.Anything).Return(nil).Once()
	a.On("Apply", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
}

func TestRun_ApplyFailureDoesNotCommit(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{Primary: todayURL}}
	st := &memState{url: "old"}
	f := &MockFetcher{Body: []byte("jpeg")}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)
	f.On("Fetch", mock.Anything, todayURL, mock.Anything).Return(nil)
	a.On("Apply", mock.Anything, mock.Anything).Return(fault.New(fault.ApplyFailed, "apply wallpaper", "no desktop"))

	_, err := p.Run(context.Background())
	assert.Equal(t, fault.ApplyFailed, fault.KindOf(err))
	assert.Equal(t, "old", st.url)
	assert.Equal(t, 0, st.sets)

	// The next cycle retries the same URL because nothing was recorded.
	_, _ = p.Run(context.Background())
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestRun_CancelledFetchDoesNotCommit(t *testing.T) {
	r := &stubResolver{candidate: source.Candidate{Primary: todayURL}}
	st := &memState{url: "old"}
	f := &MockFetcher{}
	a := &MockApplier{}
	p, _ := newTestPipeline(t, r, st, f, a)
	f.On("Fetch", mock.Anything, todayURL, mock.Anything).Return(fault.Wrap(fault.DownloadFailed, "download", context.Canceled))

	_, err := p.Run(context.Background())
	assert.True(t, fault.IsCancelled(err))
	assert.Equal(t, "old", st.url)
	a.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRun_MidTransferFailureKeepsCacheAndState(t *testing.T) {
	full := append([]byte("\xff\xd8\xff\xe0"), bytes.Repeat([]byte{0x07}, 8192)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(full)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(full[:2048])
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
	}))
	t.Cleanup(server.Close)

	newURL := server.URL + "/image/2401/new.jpg"
	r := &stubResolver{candidate: source.Candidate{Primary: newURL}}
	st := state.NewFile(filepath.Join(t.TempDir(), "state.toml"))
	require.NoError(t, st.SetLastURL("https://apod.nasa.gov/apod/image/2312/old.jpg"))
	a := &MockApplier{}
	p, dir := newTestPipeline(t, r, st, download.New(server.Client()), a)

	cached := filepath.Join(dir, "apod_image.jpg")
	previous := append([]byte("\xff\xd8\xff\xe0"), bytes.Repeat([]byte{0x01}, 1024)...)
	require.NoError(t, os.WriteFile(cached, previous, 0o644))

	_, err := p.Run(context.Background())
	assert.Equal(t, fault.DownloadFailed, fault.KindOf(err))

	got, err := os.ReadFile(cached)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(previous, got), "cached file changed after failed transfer")

	last, err := st.LastURL()
	require.NoError(t, err)
	assert.Equal(t, "https://apod.nasa.gov/apod/image/2312/old.jpg", last)
	a.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRun_RemovesStaleCacheFiles(t *testing.T) {
	pngURL := "https://x/today.png"
	r := &stubResolver{candidate: source.Candidate{Primary: pngURL}}
	st := &memState{}
	f := &MockFetcher{Body: []byte("png")}
	a := &MockApplier{}
	p, dir := newTestPipeline(t, r, st, f, a)

	stale := filepath.Join(dir, "apod_image.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	f.On("Fetch", mock.Anything, pngURL, mock.Anything).Return(nil)
	a.On("Apply", mock.Anything, mock.Anything).Return(nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale jpg should be removed")
	_, err = os.Stat(filepath.Join(dir, "apod_image.png"))
	assert.NoError(t, err)
}

func TestImageExtension(t *testing.T) {
	cases := []struct {
		in   string
		ext  string
		want bool
	}{
		{"https://x/a.jpg", ".jpg", true},
		{"https://x/a.JPG", ".jpg", true},
		{"https://x/a.png?x=1.gif", ".png", true},
		{"https://x/a.bmp", ".bmp", true},
		{"https://x/a.gif", ".gif", false},
		{"https://x/dir/", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		ext, ok := ImageExtension(tc.in)
		if ext != tc.ext || ok != tc.want {
			t.Fatalf("ImageExtension(%q) = %q, %v; want %q, %v", tc.in, ext, ok, tc.ext, tc.want)
		}
	}
}
