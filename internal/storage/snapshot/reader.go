package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docmirror/docmirror-go/internal/core/domain"
	"github.com/docmirror/docmirror-go/pkg/crypto/adaptive"
)

// CollectionFile is one collection export inside a snapshot directory.
type CollectionFile struct {
	// Collection is the collection name derived from the file name.
	Collection string

	// Path is the full path of the file.
	Path string

	// Encrypted reports whether the file carries the encrypted extension.
	Encrypted bool
}

// Reader loads collection files from a snapshot directory.
type Reader struct {
	cipher adaptive.Cipher
}

// NewReader creates a snapshot reader. A nil cipher reads plaintext
// snapshots only.
func NewReader(cipher adaptive.Cipher) *Reader {
	return &Reader{cipher: cipher}
}

// CollectionFiles enumerates the collection files directly inside dir,
// sorted by collection name. Files with foreign extensions are ignored.
func (r *Reader) CollectionFiles(dir string) ([]CollectionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []CollectionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, EncryptedExtension):
			files = append(files, CollectionFile{
				Collection: strings.TrimSuffix(name, EncryptedExtension),
				Path:       filepath.Join(dir, name),
				Encrypted:  true,
			})
		case strings.HasSuffix(name, FileExtension):
			files = append(files, CollectionFile{
				Collection: strings.TrimSuffix(name, FileExtension),
				Path:       filepath.Join(dir, name),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Collection < files[j].Collection
	})
	return files, nil
}

// Load reads and decodes one collection file into its document set.
// Deserialization failures surface as domain.ErrMalformedSnapshot.
func (r *Reader) Load(file CollectionFile) ([]domain.Document, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, err
	}

	if file.Encrypted {
		if r.cipher == nil {
			return nil, fmt.Errorf("snapshot: %s is encrypted and no key is configured", file.Path)
		}
		data, err = r.cipher.Decrypt(data, []byte(file.Collection))
		if err != nil {
			return nil, fmt.Errorf("snapshot: decrypt %s: %w", file.Path, err)
		}
	}

	docs, err := domain.DecodeDocuments(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", file.Path, err)
	}
	return docs, nil
}
