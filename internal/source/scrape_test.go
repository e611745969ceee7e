package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/five82/apodwall/internal/fault"
)

const landingPage = `<html>
<head><title> APOD: 2024 January 15 -
 The Horsehead Nebula </title></head>
<body>
<center>
<a href="archivepix.html">Discover the cosmos!</a>
<p>
<a href="image/2401/horse_hd.jpg">
<IMG SRC="image/2401/horse.jpg" alt="See Explanation."></a>
<a href="image/2401/other.jpg">second</a>
</center>
</body>
</html>`

func TestExtractImageLink_FirstMatchingAnchor(t *testing.T) {
	rel, title := ExtractImageLink([]byte(landingPage))
	if rel != "image/2401/horse_hd.jpg" {
		t.Fatalf("rel = %q, want %q", rel, "image/2401/horse_hd.jpg")
	}
	if title != "APOD: 2024 January 15 - The Horsehead Nebula" {
		t.Fatalf("title = %q, want normalized page title", title)
	}
}

func TestExtractImageLink_Fragment(t *testing.T) {
	rel, _ := ExtractImageLink([]byte(`...<a href="image/2024/01/pic.jpg">...`))
	if rel != "image/2024/01/pic.jpg" {
		t.Fatalf("rel = %q, want %q", rel, "image/2024/01/pic.jpg")
	}
}

func TestExtractImageLink_NoMarker(t *testing.T) {
	rel, _ := ExtractImageLink([]byte(`<a href="archivepix.html">archive</a><img src="image/x.jpg">`))
	if rel != "" {
		t.Fatalf("rel = %q, want empty", rel)
	}
}

func TestScanImageLink(t *testing.T) {
	if got := scanImageLink(`junk <a href="image/a/b.png" x>`); got != "image/a/b.png" {
		t.Fatalf("scanImageLink = %q, want image/a/b.png", got)
	}
	if got := scanImageLink(`<a href="image/unterminated`); got != "" {
		t.Fatalf("scanImageLink unterminated = %q, want empty", got)
	}
}

func TestScrapeResolver_ResolvesAbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(landingPage))
	}))
	t.Cleanup(server.Close)

	r := NewScrapeResolver(server.Client(), server.URL+"/apod/astropix.html", "https://apod.nasa.gov/apod/")
	c, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if c.Primary != "https://apod.nasa.gov/apod/image/2401/horse_hd.jpg" {
		t.Fatalf("Primary = %q, want absolute image url", c.Primary)
	}
	if c.Fallback != "" {
		t.Fatalf("Fallback = %q, want empty", c.Fallback)
	}
}

func TestScrapeResolver_MissingMarkerIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><iframe src="https://youtube.com/embed/x"></iframe></body></html>`))
	}))
	t.Cleanup(server.Close)

	c, err := NewScrapeResolver(server.Client(), server.URL, "https://apod.nasa.gov/apod/").Resolve(context.Background())
	if got := fault.KindOf(err); got != fault.SourceMalformed {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, fault.SourceMalformed)
	}
	if !c.Empty() {
		t.Fatalf("candidate = %#v, want empty", c)
	}
}

func TestScrapeResolver_HTTPErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := NewScrapeResolver(server.Client(), server.URL, "").Resolve(context.Background())
	if got := fault.KindOf(err); got != fault.SourceUnavailable {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, fault.SourceUnavailable)
	}
}
