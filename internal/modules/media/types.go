package media

import "fmt"

// Image is a resolved image reference with the attribution fields the
// upstream service requires to be displayed.
type Image struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	ThumbURL         string `json:"thumb_url"`
	DownloadURL      string `json:"download_url"`
	PhotographerName string `json:"photographer_name"`
	PhotographerURL  string `json:"photographer_url"`
	PageURL          string `json:"page_url"`
	AltText          string `json:"alt_text"`
}

// AttributionHTML renders the photographer credit line embedded under the
// image, with the referral parameters the provider's usage policy requires.
func (img *Image) AttributionHTML() string {
	return fmt.Sprintf(
		`Photo by <a href="%s?utm_source=autoblog&utm_medium=referral">%s</a> on <a href="%s?utm_source=autoblog&utm_medium=referral">Unsplash</a>`,
		img.PhotographerURL, img.PhotographerName, img.PageURL,
	)
}

// Video is a resolved video reference. The embed URL is derived from the id,
// not returned by the search API.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// EmbedURL returns the embeddable player URL.
func (v *Video) EmbedURL() string {
	return "https://www.youtube.com/embed/" + v.ID
}

// WatchURL returns the watch-page URL.
func (v *Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}
