// Package classify partitions image rows into the three visible triage
// buckets. The partition is pure and stable: rows keep their input order
// within each bucket, and rows matching no bucket are dropped silently.
package classify

import "github.com/leca/image-triage/internal/model"

// Buckets holds the result of one partition. The three slices are pairwise
// disjoint; a row appears in at most one of them.
type Buckets struct {
	NoImage      []model.ImageRow
	ExternalOnly []model.ImageRow
	Uploaded     []model.ImageRow
}

// Partition classifies rows by the nullability of their image URL pair.
// Rows with a stored image but no external one match no rule and are
// excluded from all buckets.
func Partition(rows []model.ImageRow) Buckets {
	var b Buckets
	for _, r := range rows {
		bucket, ok := r.Bucket()
		if !ok {
			continue
		}
		switch bucket {
		case model.BucketNoImage:
			b.NoImage = append(b.NoImage, r)
		case model.BucketExternalOnly:
			b.ExternalOnly = append(b.ExternalOnly, r)
		case model.BucketUploaded:
			b.Uploaded = append(b.Uploaded, r)
		}
	}
	return b
}

// Total returns the number of rows visible across all three buckets.
func (b Buckets) Total() int {
	return len(b.NoImage) + len(b.ExternalOnly) + len(b.Uploaded)
}

// Dropped returns how many of the given rows would be hidden by Partition.
func Dropped(rows []model.ImageRow) int {
	n := 0
	for _, r := range rows {
		if _, ok := r.Bucket(); !ok {
			n++
		}
	}
	return n
}
