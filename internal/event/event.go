package event

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"dashpress/internal/services"
)

// Record references one newly created object in the trigger bucket.
type Record struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// allowedExtensions lists the source container formats the pipeline accepts.
var allowedExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
}

// notification mirrors the object-created envelope storage services emit.
// Only the first record is consumed; one invocation handles one object.
type notification struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key         string `json:"key"`
				Size        int64  `json:"size"`
				ContentType string `json:"contentType"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Parse decodes a trigger payload. Both the flat Record form and the
// bucket-notification envelope are accepted; object keys arrive URL-encoded
// in the envelope form and are decoded here.
func Parse(data []byte) (Record, error) {
	var env notification
	if err := json.Unmarshal(data, &env); err == nil && len(env.Records) > 0 {
		obj := env.Records[0].S3
		key, err := url.QueryUnescape(obj.Object.Key)
		if err != nil {
			return Record{}, services.Wrap(services.ErrValidation, "event", "decode key", obj.Object.Key, err)
		}
		return Record{
			Bucket:      obj.Bucket.Name,
			Key:         key,
			Size:        obj.Object.Size,
			ContentType: obj.Object.ContentType,
		}, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "event", "parse", "unrecognized trigger payload", err)
	}
	return rec, nil
}

// Ext returns the lower-cased extension of the object key.
func (r Record) Ext() string {
	return strings.ToLower(path.Ext(r.Key))
}

// BaseName returns the object key's base filename without its extension,
// used to derive the destination prefix.
func (r Record) BaseName() string {
	base := path.Base(r.Key)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Validate checks the record is complete and references a supported format.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Bucket) == "" {
		return services.Wrap(services.ErrValidation, "event", "validate", "missing bucket", nil)
	}
	if strings.TrimSpace(r.Key) == "" {
		return services.Wrap(services.ErrValidation, "event", "validate", "missing object key", nil)
	}
	ext := r.Ext()
	if _, ok := allowedExtensions[ext]; !ok {
		return services.Wrap(services.ErrValidation, "event", "validate", "unsupported format "+ext, nil)
	}
	return nil
}

// ValidateDestination rejects triggers whose source would collide with the
// configured output location. Publishing back into the trigger prefix would
// re-trigger the pipeline on its own output.
func (r Record) ValidateDestination(outputBucket, outputPrefix string) error {
	if r.Bucket != outputBucket {
		return nil
	}
	prefix := strings.Trim(outputPrefix, "/")
	if prefix == "" || strings.HasPrefix(r.Key, prefix+"/") {
		return services.Wrap(services.ErrValidation, "event", "validate",
			"source object overlaps the configured output location", nil)
	}
	return nil
}
