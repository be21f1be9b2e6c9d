package synthesizer

// Section is one body block of a generated article.
type Section struct {
	Heading      string `json:"heading"`
	Content      string `json:"content"`
	ImageKeyword string `json:"image_keyword"`
}

// Article is a fully synthesized post. Immutable once built; the slug is
// derived at synthesis time and never recomputed.
type Article struct {
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	MetaDescription string    `json:"meta_description"`
	Intro           string    `json:"intro"`
	Sections        []Section `json:"sections"`
	Conclusion      string    `json:"conclusion"`
	Tags            []string  `json:"tags"`
	ImageKeywords   []string  `json:"image_keywords"`
	VideoKeywords   []string  `json:"video_keywords"`
}

const (
	maxTags          = 5
	maxImageKeywords = 3
	maxVideoKeywords = 2
)
