package album

// Summary describes one album for listings.
type Summary struct {
	Name       string   `json:"name"`
	FileType   FileType `json:"file_type"`
	ImageCount int      `json:"image_count"`
	FirstImage string   `json:"first_image,omitempty"`
	Images     []string `json:"-"`
}

// Summary scans the album once and reports its type, size, and preview image.
func (ix *Indexer) Summary(album string) (Summary, error) {
	images, err := ix.Images(album)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Name:       album,
		FileType:   Classify(images),
		ImageCount: len(images),
		Images:     images,
	}
	if len(images) > 0 {
		s.FirstImage = images[0]
	}
	return s, nil
}
