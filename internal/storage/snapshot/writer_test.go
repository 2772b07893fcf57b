package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docmirror/docmirror-go/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWriter_Create(t *testing.T) {
	root := t.TempDir()
	instant := time.Date(2026, time.August, 26, 14, 30, 5, 0, time.Local)
	w := NewWriter(WithClock(fixedClock(instant)))

	collections := map[string][]domain.Document{
		"users":  {{"_id": "1", "name": "John", "age": json.Number("25")}},
		"orders": {},
	}

	path, err := w.Create(root, collections)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if filepath.Base(path) != "backup_08262026_143005" {
		t.Errorf("snapshot dir = %q, want backup_08262026_143005", filepath.Base(path))
	}
	if !filepath.IsAbs(path) {
		t.Errorf("Create() should return an absolute path, got %q", path)
	}

	for _, name := range []string{"users.json", "orders.json"} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			t.Errorf("missing collection file %s: %v", name, err)
		}
	}

	// No stray temp files left behind.
	entries, _ := os.ReadDir(path)
	if len(entries) != 2 {
		t.Errorf("snapshot dir has %d entries, want 2", len(entries))
	}
}

func TestWriter_Create_Reproducible(t *testing.T) {
	root := t.TempDir()
	docs := map[string][]domain.Document{
		"users": {
			{"_id": "b", "name": "Jane"},
			{"_id": "a", "name": "John"},
		},
	}

	w1 := NewWriter(WithClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))))
	p1, err := w1.Create(root, docs)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w2 := NewWriter(WithClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 1, 0, time.Local))))
	p2, err := w2.Create(root, docs)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	b1, err := os.ReadFile(filepath.Join(p1, "users.json"))
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(filepath.Join(p2, "users.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("re-running against unchanged data should yield byte-identical files")
	}
}

func TestWriter_Create_Encrypted(t *testing.T) {
	root := t.TempDir()

	cipher, err := NewCipher(root, EncryptionConfig{Passphrase: "correct horse battery"})
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	w := NewWriter(WithCipher(cipher), WithClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))))
	path, err := w.Create(root, map[string][]domain.Document{
		"users": {{"_id": "1", "secret": "hunter2"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	encPath := filepath.Join(path, "users"+EncryptedExtension)
	raw, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("expected encrypted file: %v", err)
	}
	if bytes.Contains(raw, []byte("hunter2")) {
		t.Error("ciphertext leaks plaintext")
	}

	// A reader with the same passphrase round-trips the documents.
	reader := NewReader(cipher)
	files, err := reader.CollectionFiles(path)
	if err != nil {
		t.Fatalf("CollectionFiles() error = %v", err)
	}
	if len(files) != 1 || !files[0].Encrypted || files[0].Collection != "users" {
		t.Fatalf("files = %+v", files)
	}
	docs, err := reader.Load(files[0])
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 || docs[0]["secret"] != "hunter2" {
		t.Errorf("decrypted docs = %v", docs)
	}
}

func TestNewCipher_Validation(t *testing.T) {
	if _, err := NewCipher(t.TempDir(), EncryptionConfig{Passphrase: "short"}); err != ErrPassphraseTooWeak {
		t.Errorf("error = %v, want ErrPassphraseTooWeak", err)
	}
	if _, err := NewCipher(t.TempDir(), EncryptionConfig{Key: []byte("tiny")}); err != ErrKeyTooShort {
		t.Errorf("error = %v, want ErrKeyTooShort", err)
	}
	if c, err := NewCipher(t.TempDir(), EncryptionConfig{}); err != nil || c != nil {
		t.Errorf("no material should disable encryption, got %v, %v", c, err)
	}
}

func TestNewCipher_SaltPersistsAcrossRuns(t *testing.T) {
	root := t.TempDir()
	cfg := EncryptionConfig{Passphrase: "correct horse battery"}

	c1, err := NewCipher(root, cfg)
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	c2, err := NewCipher(root, cfg)
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	// Same salt, same passphrase: c2 must decrypt what c1 encrypted.
	ct, err := c1.Encrypt([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	pt, err := c2.Decrypt(ct, nil)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(pt) != "payload" {
		t.Errorf("round-trip = %q", pt)
	}
}
