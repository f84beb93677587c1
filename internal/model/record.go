package model

// WorkRecord is a bibliographic record as returned by the source.
// It is read-only once fetched.
type WorkRecord struct {
	ID              string `json:"id"`               // Source URI, e.g. https://openalex.org/W2741809807
	DOI             string `json:"doi,omitempty"`    // Bare DOI, empty when the source has none
	Title           string `json:"title,omitempty"`  // Work title
	DisplayName     string `json:"display_name"`     // Display title used for labels
	PublicationYear int    `json:"publication_year"` // 0 if unknown
	PublicationDate string `json:"publication_date"` // YYYY-MM-DD
	Type            string `json:"type"`             // Source work-type classification

	Venue *Venue `json:"venue,omitempty"`

	Issue     string `json:"issue,omitempty"`
	Volume    string `json:"volume,omitempty"`
	FirstPage string `json:"first_page,omitempty"`
	LastPage  string `json:"last_page,omitempty"`

	Authorships     []Authorship `json:"authorships,omitempty"`
	Concepts        []Concept    `json:"concepts,omitempty"`
	ReferencedWorks []string     `json:"referenced_works,omitempty"` // Source URIs of cited works
}

// Label returns the text used for the item label.
func (w *WorkRecord) Label() string {
	if w.DisplayName != "" {
		return w.DisplayName
	}
	return w.Title
}

// Venue is the publication venue of a work.
type Venue struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	ISSNL       string `json:"issn_l,omitempty"` // Venue-level secondary identifier
}

// AuthorPosition is the semantic position label the source gives an author.
type AuthorPosition string

const (
	PositionFirst  AuthorPosition = "first"
	PositionMiddle AuthorPosition = "middle"
	PositionLast   AuthorPosition = "last"
)

// Authorship links an author to a work.
type Authorship struct {
	Position    AuthorPosition `json:"position,omitempty"`
	AuthorID    string         `json:"author_id,omitempty"` // Source URI of the author
	DisplayName string         `json:"display_name"`
	ORCID       string         `json:"orcid,omitempty"` // Bare ORCID iD, no URL prefix
}

// Concept is a subject classification term attached to a work.
type Concept struct {
	ID          string  `json:"id"`                    // Source URI of the concept
	DisplayName string  `json:"display_name"`          // Human readable term
	WikidataID  string  `json:"wikidata_id,omitempty"` // Pre-linked knowledge-base id, e.g. Q10862618
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}
