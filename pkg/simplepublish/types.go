package simplepublish

import "io"

// Envelope is the full structured metadata document a caller stores against
// a content ID. It is opaque to the coordinator except for the fields
// projected into the search index.
type Envelope map[string]interface{}

// IndexDocument is the projection of an Envelope mirrored into the search
// index. It exists only while the corresponding envelope exists in the blob
// store; that pairing is best-effort, not transactional.
type IndexDocument struct {
	ContentID   string   `json:"content_id"`
	Title       string   `json:"title,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Asset is an uploaded binary waiting to be fingerprinted and published.
type Asset struct {
	OriginalName string
	ContentType  string
	Data         io.Reader
}

// AssetRecord is the immutable result of fingerprinting one asset.
type AssetRecord struct {
	OriginalName      string
	FingerprintedName string
	ContentType       string
	Digest            string
	Size              int64
}

// AssetSummary maps each asset's original name to its publicly resolvable
// URL after a batch publish.
type AssetSummary map[string]string
