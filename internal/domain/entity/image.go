package entity

// Field names a catalog column for cell edits.
type Field string

const (
	FieldLocation    Field = "location"
	FieldCode        Field = "code"
	FieldDescription Field = "description"
	FieldImages      Field = "images"
)

// ParseField maps a form or API field name to a Field.
func ParseField(name string) (Field, error) {
	switch Field(name) {
	case FieldLocation, FieldCode, FieldDescription, FieldImages:
		return Field(name), nil
	}
	return "", ErrUnknownField
}

// Upload an uploaded image blob
type Upload struct {
	Filename string
	Data     []byte
}

// UploadIssue a per-file problem inside an upload batch
type UploadIssue struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// AttachResult outcome of attaching a batch of images to one product
type AttachResult struct {
	Code      string        `json:"code"`
	Found     bool          `json:"found"`      // false when no row carries Code
	Index     int           `json:"index"`      // row the images were attached to
	Saved     []string      `json:"saved"`      // paths appended to the row, in order
	Rejected  []UploadIssue `json:"rejected"`   // wrong type, write failure, name collision
	Ignored   []string      `json:"ignored"`    // files past the per-product limit
	ImageRefs []string      `json:"image_refs"` // the row's refs after the attach
}

// ImageView one image ref as it should be rendered
type ImageView struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"` // set by the web layer for existing files
}

// SearchState what a search result represents
type SearchState string

const (
	SearchPrompt   SearchState = "prompt"
	SearchFound    SearchState = "found"
	SearchNotFound SearchState = "not_found"
)

// SearchHit a matching row and its images
type SearchHit struct {
	Index   int         `json:"index"`
	Product Product     `json:"product"`
	Images  []ImageView `json:"images,omitempty"`
}

// SearchResult the outcome of a code search
type SearchResult struct {
	Query string      `json:"query"`
	State SearchState `json:"state"`
	Hits  []SearchHit `json:"hits"`
}
