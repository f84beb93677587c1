package openalex

import (
	"strings"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/model"
)

const orcidPrefix = "https://orcid.org/"

// toRecord converts a decoded work into the domain record
func toRecord(w *work) *model.WorkRecord {
	rec := &model.WorkRecord{
		ID:              w.ID,
		Title:           strings.TrimSpace(w.Title),
		DisplayName:     strings.TrimSpace(w.DisplayName),
		PublicationYear: w.PublicationYear,
		PublicationDate: w.PublicationDate,
		Type:            w.Type,
		Venue:           toVenue(w),
		Issue:           w.Biblio.Issue,
		Volume:          w.Biblio.Volume,
		FirstPage:       w.Biblio.FirstPage,
		LastPage:        w.Biblio.LastPage,
		ReferencedWorks: w.ReferencedWorks,
	}

	// A DOI the normalizer rejects is treated as absent
	if w.DOI != "" {
		if bare, err := doi.Normalize(w.DOI); err == nil {
			rec.DOI = bare
		}
	}

	for _, a := range w.Authorships {
		rec.Authorships = append(rec.Authorships, model.Authorship{
			Position:    model.AuthorPosition(a.AuthorPosition),
			AuthorID:    a.Author.ID,
			DisplayName: a.Author.DisplayName,
			ORCID:       strings.TrimPrefix(a.Author.ORCID, orcidPrefix),
		})
	}

	for _, c := range w.Concepts {
		rec.Concepts = append(rec.Concepts, model.Concept{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			WikidataID:  leaf(c.Wikidata),
			Level:       c.Level,
			Score:       c.Score,
		})
	}

	return rec
}

func toVenue(w *work) *model.Venue {
	src := w.HostVenue
	if src.empty() && w.PrimaryLocation != nil {
		src = w.PrimaryLocation.Source
	}
	if src.empty() {
		return nil
	}

	issnL := src.ISSNL
	if issnL == "" && len(src.ISSN) > 0 {
		issnL = src.ISSN[0]
	}

	return &model.Venue{
		ID:          src.ID,
		DisplayName: src.DisplayName,
		ISSNL:       issnL,
	}
}

// leaf returns the last path segment of an entity URI
func leaf(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
