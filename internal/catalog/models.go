package catalog

type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	PreviewURL string   `json:"preview_url,omitempty"`
}

type Artist struct {
	Name string `json:"name"`
}

type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

type Image struct {
	URL string `json:"url"`
}
