//go:build cgo

// Package tesseract adapts the gosseract client to the textrecog
// Engine contract. It requires the Tesseract C library at build time.
package tesseract

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/docmark/docmark/textrecog"
)

// Engine recognizes text via a Tesseract client. One engine may be
// reused across requests; it is not safe for concurrent use.
type Engine struct {
	client *gosseract.Client
	tmpDir string
}

// New creates a Tesseract-backed engine.
func New() (*Engine, error) {
	dir, err := os.MkdirTemp("", "docmark-recog-*")
	if err != nil {
		return nil, fmt.Errorf("tesseract: temp dir: %w", err)
	}
	return &Engine{client: gosseract.NewClient(), tmpDir: dir}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	err := e.client.Close()
	if rmErr := os.RemoveAll(e.tmpDir); err == nil {
		err = rmErr
	}
	return err
}

// Recognize runs OCR over the input image.
func (e *Engine) Recognize(ctx context.Context, in textrecog.Input) (textrecog.Result, error) {
	if err := ctx.Err(); err != nil {
		return textrecog.Result{}, err
	}
	if in.Image == nil {
		return textrecog.Result{}, fmt.Errorf("tesseract: nil input image")
	}
	if len(in.Languages) > 0 {
		if err := e.client.SetLanguage(in.Languages...); err != nil {
			return textrecog.Result{}, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	// gosseract reads from a file path or raw encoded bytes; go via a
	// scratch PNG to keep the client API surface small.
	path := filepath.Join(e.tmpDir, "region.png")
	f, err := os.Create(path)
	if err != nil {
		return textrecog.Result{}, fmt.Errorf("tesseract: scratch file: %w", err)
	}
	if err := png.Encode(f, in.Image); err != nil {
		f.Close()
		return textrecog.Result{}, fmt.Errorf("tesseract: encode region: %w", err)
	}
	if err := f.Close(); err != nil {
		return textrecog.Result{}, err
	}
	if err := e.client.SetImage(path); err != nil {
		return textrecog.Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return textrecog.Result{}, fmt.Errorf("tesseract: recognize: %w", err)
	}
	return textrecog.Result{Text: strings.TrimSpace(text), Confidence: 1}, nil
}
