package domain

// MatchSource records which retrieval path produced a match
type MatchSource string

const (
	MatchSourceVector  MatchSource = "vector"
	MatchSourceKeyword MatchSource = "keyword"
)

// Match is an ephemeral retrieval hit for a single knowledge item. A fused
// result set contains at most one Match per item id; when both paths hit the
// same item the vector match wins.
type Match struct {
	ID         string
	Content    string
	Source     MatchSource
	Similarity float64
}

// Topic is one disambiguation choice presented to the user when a broad
// query hits several distinct knowledge items.
type Topic struct {
	ID      string
	Title   string
	Preview string
}
