// Package download streams a remote image to disk and swaps it into place only
// once the transfer is complete and the bytes look like an image.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/fsx"
	"github.com/five82/apodwall/internal/httpx"
)

// Downloader fetches images over HTTP.
type Downloader struct {
	http *http.Client
}

// New returns a Downloader using client, or a default client when nil.
func New(client *http.Client) *Downloader {
	if client == nil {
		client = httpx.NewClient(httpx.Options{})
	}
	return &Downloader{http: client}
}

// Fetch downloads url to dest. The body is streamed into a temp file beside
// dest; dest is only replaced after the whole body arrived and was sniffed as
// an image, so any reader sees either the previous file or the new one.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	const op = "download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fault.Wrap(fault.DownloadFailed, op, fmt.Errorf("create request: %w", err))
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return fault.Wrap(fault.DownloadFailed, op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httpx.CheckStatus(resp); err != nil {
		return fault.Wrap(fault.DownloadFailed, op, err)
	}

	pending, err := fsx.Create(dest)
	if err != nil {
		return fault.Wrap(fault.DownloadFailed, op, err)
	}
	defer pending.Abort()

	n, err := io.Copy(pending, resp.Body)
	if err != nil {
		// A body read aborted by cancellation surfaces the request's context error.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("copy body: %w", ctxErr)
		} else {
			err = fmt.Errorf("copy body: %w", err)
		}
		return fault.Wrap(fault.DownloadFailed, op, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fault.Wrap(fault.DownloadFailed, op, fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength))
	}
	if n == 0 {
		return fault.New(fault.DownloadFailed, op, "empty body")
	}

	if _, err := pending.Seek(0, io.SeekStart); err != nil {
		return fault.Wrap(fault.DownloadFailed, op, fmt.Errorf("rewind temp file: %w", err))
	}
	mtype, err := mimetype.DetectReader(pending)
	if err != nil {
		return fault.Wrap(fault.DownloadFailed, op, fmt.Errorf("detect content type: %w", err))
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fault.New(fault.DownloadFailed, op, fmt.Sprintf("body is %s, not an image", mtype.String()))
	}

	if err := ctx.Err(); err != nil {
		return fault.Wrap(fault.DownloadFailed, op, err)
	}
	if err := pending.Commit(); err != nil {
		return fault.Wrap(fault.DownloadFailed, op, err)
	}
	return nil
}
