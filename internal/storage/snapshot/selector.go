package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Info describes one snapshot directory.
type Info struct {
	// Name is the directory name, e.g. backup_08262026_143005.
	Name string

	// Path is the full path of the directory.
	Path string

	// CreatedAt is the instant embedded in the name, local time.
	CreatedAt time.Time
}

// List returns the snapshots directly under root, oldest first.
// A missing root yields an empty list, not an error.
func List(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, ok := ParseName(e.Name())
		if !ok {
			continue
		}
		infos = append(infos, Info{
			Name:      e.Name(),
			Path:      filepath.Join(root, e.Name()),
			CreatedAt: t,
		})
	}

	// Chronological by the embedded timestamp, not lexicographic: the
	// month-first name format does not sort chronologically across years.
	// Name order breaks ties.
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// SelectLatest returns the chronologically latest snapshot under root.
// ok is false when root holds no snapshots; that is an informational
// outcome, not an error.
func SelectLatest(root string) (Info, bool, error) {
	infos, err := List(root)
	if err != nil {
		return Info{}, false, err
	}
	if len(infos) == 0 {
		return Info{}, false, nil
	}
	return infos[len(infos)-1], true, nil
}

// Prune deletes old snapshot directories, keeping the last retentionCount
// snapshots and everything newer than retentionDays. The newest snapshot
// is never deleted. Returns the deleted snapshots.
func Prune(root string, retentionCount, retentionDays int) ([]Info, error) {
	infos, err := List(root)
	if err != nil {
		return nil, err
	}
	if len(infos) <= 1 {
		return nil, nil
	}

	keep := make(map[string]struct{}, len(infos))

	if retentionCount > 0 {
		start := len(infos) - retentionCount
		if start < 0 {
			start = 0
		}
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}

	if retentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
		for _, info := range infos {
			if info.CreatedAt.After(cutoff) {
				keep[info.Path] = struct{}{}
			}
		}
	}

	keep[infos[len(infos)-1].Path] = struct{}{}

	var deleted []Info
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.RemoveAll(info.Path); err != nil {
			return deleted, err
		}
		deleted = append(deleted, info)
	}
	return deleted, nil
}
