package simplepublish

// Projected field names. Only these escape the envelope into the search
// index; everything else stays opaque.
const (
	fieldTitle       = "title"
	fieldPublishDate = "publish_date"
	fieldTags        = "tags"
	fieldCategories  = "categories"
)

// ProjectEnvelope extracts the index projection of an envelope. Fields
// absent from the envelope (or of the wrong shape) are omitted from the
// document, not defaulted.
func ProjectEnvelope(contentID string, env Envelope) IndexDocument {
	doc := IndexDocument{ContentID: contentID}

	if v, ok := env[fieldTitle].(string); ok {
		doc.Title = v
	}
	if v, ok := env[fieldPublishDate].(string); ok {
		doc.PublishDate = v
	}
	doc.Tags = stringSlice(env[fieldTags])
	doc.Categories = stringSlice(env[fieldCategories])

	return doc
}

// stringSlice coerces a decoded JSON array into []string. Decoded envelopes
// carry []interface{}; envelopes built in Go code may carry []string
// directly. Non-string elements are dropped.
func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		if len(vals) == 0 {
			return nil
		}
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	case []interface{}:
		var out []string
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
