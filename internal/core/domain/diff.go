// Package domain defines the core domain models for docmirror.
package domain

// Diff is the transient per-collection reconciliation result: the minimal
// insert/update/delete sets that make the live collection match the
// imported snapshot. The three sets are disjoint by identifier.
type Diff struct {
	// ToInsert holds imported documents whose identifier is absent from
	// the live set, verbatim including the original identifier.
	ToInsert []Document

	// ToUpdate holds imported documents whose identifier exists live but
	// whose non-identifier content differs from the live document.
	ToUpdate []Document

	// ToDelete holds identifiers of live documents absent from the
	// imported set.
	ToDelete []ID
}

// Empty reports whether the diff requires no write traffic.
func (d Diff) Empty() bool {
	return len(d.ToInsert) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// ComputeDiff classifies the imported document set against the live set by
// identifier equality. Documents lacking an identifier on either side are
// excluded from every classification and left untouched.
//
// Update detection compares non-identifier content structurally; a murmur3
// hash of the canonical encoding is used as an inequality fast path, with
// hash-equal pairs confirmed by the structural comparison.
func ComputeDiff(imported, live []Document) (Diff, error) {
	liveByID := make(map[string]Document, len(live))
	liveOrder := make([]ID, 0, len(live))
	for _, doc := range live {
		id, ok := doc.ID()
		if !ok {
			continue
		}
		if _, seen := liveByID[id.String()]; seen {
			continue
		}
		liveByID[id.String()] = doc
		liveOrder = append(liveOrder, id)
	}

	var diff Diff
	importedIDs := make(map[string]struct{}, len(imported))

	for _, doc := range imported {
		id, ok := doc.ID()
		if !ok {
			continue
		}
		if _, seen := importedIDs[id.String()]; seen {
			continue
		}
		importedIDs[id.String()] = struct{}{}

		liveDoc, exists := liveByID[id.String()]
		if !exists {
			diff.ToInsert = append(diff.ToInsert, doc)
			continue
		}

		same, err := contentSame(doc, liveDoc)
		if err != nil {
			return Diff{}, err
		}
		if !same {
			diff.ToUpdate = append(diff.ToUpdate, doc)
		}
	}

	for _, id := range liveOrder {
		if _, exists := importedIDs[id.String()]; !exists {
			diff.ToDelete = append(diff.ToDelete, id)
		}
	}

	return diff, nil
}

func contentSame(a, b Document) (bool, error) {
	ha, err := ContentHash(a)
	if err != nil {
		return false, err
	}
	hb, err := ContentHash(b)
	if err != nil {
		return false, err
	}
	if ha != hb {
		return false, nil
	}
	return ContentEqual(a, b), nil
}
