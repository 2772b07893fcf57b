package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docmirror/docmirror-go/internal/core/domain"
	"github.com/docmirror/docmirror-go/pkg/crypto/adaptive"
)

// Writer materializes snapshot directories.
type Writer struct {
	cipher adaptive.Cipher
	now    func() time.Time
}

// WriterOption configures the Writer.
type WriterOption func(*Writer)

// WithCipher enables at-rest encryption of collection files.
func WithCipher(cipher adaptive.Cipher) WriterOption {
	return func(w *Writer) {
		w.cipher = cipher
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a snapshot writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Create writes one snapshot directory under root containing one file per
// collection, and returns the absolute path of the created directory.
// I/O errors are surfaced unmodified; nothing is retried.
func (w *Writer) Create(root string, collections map[string][]domain.Document) (string, error) {
	dir := filepath.Join(root, FormatName(w.now()))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}

	for name, docs := range collections {
		if err := w.writeCollection(dir, name, docs); err != nil {
			return "", err
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// writeCollection encodes one document set and writes it atomically:
// temp file in the snapshot directory, fsync, rename.
func (w *Writer) writeCollection(dir, name string, docs []domain.Document) error {
	data, err := domain.EncodeDocuments(docs)
	if err != nil {
		return err
	}

	ext := FileExtension
	if w.cipher != nil {
		data, err = w.cipher.Encrypt(data, []byte(name))
		if err != nil {
			return fmt.Errorf("snapshot: encrypt %s: %w", name, err)
		}
		ext = EncryptedExtension
	}

	final := filepath.Join(dir, name+ext)
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}
