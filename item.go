package glimpse

// EmbeddingSize is the expected length of text and image embeddings.
const EmbeddingSize = 1024

// Item is a normalized preview as stored and exchanged with collaborators.
type Item struct {
	URL            string         `json:"url"`
	Title          *string        `json:"title"`
	Description    *string        `json:"description"`
	Image          *string        `json:"image"`
	SiteName       *string        `json:"site_name"`
	TabID          *int64         `json:"tab_id"`
	TabTitle       *string        `json:"tab_title"`
	TextEmbedding  []float64      `json:"text_embedding"`
	ImageEmbedding []float64      `json:"image_embedding"`
	Metadata       map[string]any `json:"metadata"`
	IsDocCard      bool           `json:"is_doc_card"`
	IsScreenshot   bool           `json:"is_screenshot"`
	Success        bool           `json:"success"`
	ImageWidth     *int64         `json:"image_width,omitempty"`
	ImageHeight    *int64         `json:"image_height,omitempty"`
}

// Validate returns an error if the item contains invalid fields.
func (i *Item) Validate() error {
	if i.URL == "" {
		return Errorf(EINVALID, "item url required")
	}
	return nil
}
