package entity

type PageContent struct {
	URL   string
	Title string
	HTML  string
}

// UIElement is one interactive element of the current page. Index is the
// label the agent uses to address the element in later actions; it is only
// valid until the next observation.
type UIElement struct {
	Index       int    `json:"index"`
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	Name        string `json:"name,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Value       string `json:"value,omitempty"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
