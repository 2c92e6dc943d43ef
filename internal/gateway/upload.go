package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// UploadDocument streams the file from up.Open as the multipart field
// "file". The body is rebuilt from a fresh Open on redirects, so a 307 from
// /upload-doc to /upload-doc/ is followed. onProgress, when non-nil,
// receives non-decreasing percentages in [0, 100] from the goroutine
// feeding the request body, before UploadDocument returns.
func (c *Client) UploadDocument(ctx context.Context, up Upload, onProgress func(int)) (*Document, error) {
	const op = "upload document"

	if up.Open == nil {
		return nil, errors.New("upload has no file to open")
	}

	form := multipart.NewWriter(io.Discard)
	body := &uploadBody{up: up, boundary: form.Boundary(), progress: monotonic(onProgress)}
	defer body.wait()

	first, err := body.open()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-doc", first)
	if err != nil {
		first.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.GetBody = body.open
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ack uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, c.decodeFailed(op, resp.StatusCode, err)
	}

	doc := &Document{ID: ack.ID, Filename: ack.Filename}
	if doc.ID == "" {
		doc.ID = ack.FileID
	}
	if doc.Filename == "" {
		doc.Filename = up.Filename
	}
	c.logger.Info("document uploaded", zap.String("id", doc.ID), zap.String("filename", doc.Filename))
	return doc, nil
}

// uploadBody produces the multipart request body, once per attempt. Every
// attempt shares one boundary so the Content-Type header stays valid.
type uploadBody struct {
	up       Upload
	boundary string
	progress func(int)

	mu      sync.Mutex
	readers []*io.PipeReader
	writers sync.WaitGroup
}

func (b *uploadBody) open() (io.ReadCloser, error) {
	src, err := b.up.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	if err := mw.SetBoundary(b.boundary); err != nil {
		src.Close()
		return nil, err
	}

	b.mu.Lock()
	b.readers = append(b.readers, pr)
	b.mu.Unlock()

	b.writers.Add(1)
	go func() {
		defer b.writers.Done()
		defer src.Close()
		part, err := mw.CreateFormFile("file", b.up.Filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, newProgressReader(src, b.up.Size, b.progress)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	return pr, nil
}

// wait unblocks writers whose request ended early, then waits for them so
// no progress callback fires after UploadDocument returns.
func (b *uploadBody) wait() {
	b.mu.Lock()
	for _, pr := range b.readers {
		pr.Close()
	}
	b.mu.Unlock()
	b.writers.Wait()
}

// monotonic drops percentages that do not exceed the last one reported, so
// a replayed body does not send progress backwards.
func monotonic(progress func(int)) func(int) {
	if progress == nil {
		return nil
	}
	var mu sync.Mutex
	last := -1
	return func(percent int) {
		mu.Lock()
		defer mu.Unlock()
		if percent > last {
			last = percent
			progress(percent)
		}
	}
}

// progressReader reports how much of a body of known size has been read.
// Percentages are rounded and only reported when they increase, so a
// consumer sees a bounded, non-decreasing sequence.
type progressReader struct {
	r        io.Reader
	size     int64
	read     int64
	last     int
	progress func(int)
}

func newProgressReader(r io.Reader, size int64, progress func(int)) io.Reader {
	if progress == nil || size <= 0 {
		return r
	}
	return &progressReader{r: r, size: size, last: -1, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		percent := int((p.read*100 + p.size/2) / p.size)
		if percent > 100 {
			percent = 100
		}
		if percent > p.last {
			p.last = percent
			p.progress(percent)
		}
	}
	return n, err
}
