package trending

// Topic is one trending headline with its source and rank score.
type Topic struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url"`
	Score  int    `json:"score"`
}
