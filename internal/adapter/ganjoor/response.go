package ganjoor

// Wire types for the public poetry API. The upstream JSON is not perfectly
// regular: poem text may arrive as structured verses, embedded HTML, or plain
// text depending on how the poem was imported upstream, and category
// responses nest sub-categories as "children" stubs that must be fetched
// separately.

type poetJSON struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	BirthYear   *int    `json:"birthYear"`
	DeathYear   *int    `json:"deathYear"`
}

type poetDetailJSON struct {
	Poet       poetJSON       `json:"poet"`
	Categories []categoryJSON `json:"categories"`
}

type categoryJSON struct {
	ID          int           `json:"id"`
	PoetID      int           `json:"poetId"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description"`
	PoemCount   int           `json:"poemCount"`
	Children    []categoryJSON `json:"children"`
	Poems       []poemJSON     `json:"poems"`
}

type categoryDetailJSON struct {
	Cat categoryJSON `json:"cat"`
}

type verseJSON struct {
	Text string `json:"text"`
}

type poemJSON struct {
	ID     int         `json:"id"`
	Title  string      `json:"title"`
	Verses []verseJSON `json:"verses"`

	// Fallback text carriers, in decreasing order of fidelity.
	HTMLText  string `json:"htmlText"`
	PlainText string `json:"plainText"`
	Excerpt   string `json:"excerpt"`

	PoetID        int    `json:"poetId"`
	PoetName      string `json:"poetName"`
	CategoryID    int    `json:"catId"`
	CategoryTitle string `json:"catTitle"`
}

type poemDetailJSON struct {
	Poem poemJSON `json:"poem"`
}
