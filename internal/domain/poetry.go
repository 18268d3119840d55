package domain

// Poet is a poet in the corpus. Immutable once fetched; identity is the
// numeric id assigned by the upstream API.
type Poet struct {
	ID          int
	Name        string
	Slug        string
	Description *string
	BirthYear   *int
	DeathYear   *int
}

// Category is a named grouping of poems under a poet (a collection or book).
// PoemCount is derived from descendant chapters, not authoritative.
type Category struct {
	ID          int
	PoetID      int
	Title       string
	Slug        string
	Description *string
	PoemCount   int
	Chapters    []Chapter
}

// Chapter is a sub-grouping within a category. Chapters nest arbitrarily.
type Chapter struct {
	ID        int
	ParentID  int
	Title     string
	PoemCount int
	Children  []Chapter
}

// TotalPoemCount returns the category's own poem count plus the counts of
// all descendant chapters.
func (c *Category) TotalPoemCount() int {
	total := c.PoemCount
	for i := range c.Chapters {
		total += c.Chapters[i].totalPoemCount()
	}
	return total
}

func (ch *Chapter) totalPoemCount() int {
	total := ch.PoemCount
	for i := range ch.Children {
		total += ch.Children[i].totalPoemCount()
	}
	return total
}

// PoetProfile bundles a poet with their top-level categories.
type PoetProfile struct {
	Poet       Poet
	Categories []Category
}

// Poem is a single poem. Verses holds the verse lines in reading order; two
// consecutive entries form a couplet. Verses never contains empty strings
// after normalization.
type Poem struct {
	ID            int
	Title         string
	Verses        []string
	PoetID        int
	PoetName      string
	CategoryID    int
	CategoryTitle string
	ChapterID     *int
	ChapterTitle  *string
}
