package model

// ImageRow is one catalog entry under triage for image availability.
// Rows are immutable snapshots: every fetch replaces the list wholesale.
type ImageRow struct {
	ID               string  `json:"id"`
	Subject          string  `json:"subject"`
	OrderKey         string  `json:"order_key"`
	ExternalImageURL *string `json:"external_image_url,omitempty"`
	StoredImageURL   *string `json:"stored_image_url,omitempty"`
}

// Bucket is one of the three visible classification outcomes.
type Bucket string

const (
	BucketNoImage      Bucket = "no_image"
	BucketExternalOnly Bucket = "external_only"
	BucketUploaded     Bucket = "uploaded"
)

// Bucket classifies the row by the nullability pair of its two image URLs.
// Rows that carry a stored image but no external one match no bucket and
// report ok=false; they are hidden from every tab.
func (r ImageRow) Bucket() (Bucket, bool) {
	switch {
	case r.ExternalImageURL == nil && r.StoredImageURL == nil:
		return BucketNoImage, true
	case r.ExternalImageURL != nil && r.StoredImageURL == nil:
		return BucketExternalOnly, true
	case r.ExternalImageURL != nil && r.StoredImageURL != nil:
		return BucketUploaded, true
	default:
		return "", false
	}
}

// StatusOK is the sentinel value the upload sink returns on success.
const StatusOK = "ok"

// UploadResult is the upload sink's response body. Anything other than
// Status == StatusOK is a logical failure.
type UploadResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StringPtr returns a pointer to s. Convenience for building nullable URL fields.
func StringPtr(s string) *string {
	return &s
}
