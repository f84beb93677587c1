package openalex

// work mirrors the subset of the OpenAlex Work object the importer reads.
// Nullable members decode to their zero value.
type work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	PublicationDate string       `json:"publication_date"`
	Type            string       `json:"type"`
	HostVenue       *source      `json:"host_venue"`
	PrimaryLocation *location    `json:"primary_location"`
	Biblio          biblio       `json:"biblio"`
	Authorships     []authorship `json:"authorships"`
	Concepts        []concept    `json:"concepts"`
	ReferencedWorks []string     `json:"referenced_works"`
}

type location struct {
	Source *source `json:"source"`
}

// source is a venue; older responses call it host_venue
type source struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	ISSNL       string   `json:"issn_l"`
	ISSN        []string `json:"issn"`
}

func (s *source) empty() bool {
	return s == nil || (s.ID == "" && s.DisplayName == "" && s.ISSNL == "" && len(s.ISSN) == 0)
}

type biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type authorship struct {
	AuthorPosition string `json:"author_position"`
	Author         author `json:"author"`
}

type author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

type concept struct {
	ID          string  `json:"id"`
	Wikidata    string  `json:"wikidata"`
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}
