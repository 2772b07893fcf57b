package snapshot

import (
	"strings"
	"time"
)

const (
	// NamePrefix is the fixed prefix of snapshot directory names.
	NamePrefix = "backup_"

	// nameLayout is the timestamp layout embedded in directory names:
	// month, day, year, hour, minute, second, zero-padded.
	nameLayout = "01022006_150405"

	// FileExtension is the extension of plaintext collection files.
	FileExtension = ".json"

	// EncryptedExtension is the extension of encrypted collection files.
	EncryptedExtension = ".json.enc"
)

// FormatName returns the snapshot directory name for the given instant,
// e.g. backup_08262026_143005.
func FormatName(t time.Time) string {
	return NamePrefix + t.Format(nameLayout)
}

// ParseName extracts the timestamp from a snapshot directory name.
// Returns ok=false when the name does not match the format.
func ParseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, NamePrefix) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(nameLayout, strings.TrimPrefix(name, NamePrefix), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsSnapshotName reports whether name is a well-formed snapshot directory name.
func IsSnapshotName(name string) bool {
	_, ok := ParseName(name)
	return ok
}
