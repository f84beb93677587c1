package model

// Knowledge-base properties used by the importer
const (
	PropertyInstanceOf       = "P31"
	PropertyAuthor           = "P50"
	PropertyISSN             = "P236"
	PropertyPages            = "P304"
	PropertyDOI              = "P356"
	PropertyIssue            = "P433"
	PropertyVolume           = "P478"
	PropertyORCID            = "P496"
	PropertyPublicationDate  = "P577"
	PropertyMainSubject      = "P921"
	PropertyPublishedIn      = "P1433"
	PropertyTitle            = "P1476"
	PropertySeriesOrdinal    = "P1545"
	PropertyAuthorNameString = "P2093"
	PropertyCitesWork        = "P2860"
	PropertyOpenAlexID       = "P10283"

	// Reference parts
	PropertyStatedIn  = "P248"
	PropertyRetrieved = "P813"
)

// ItemOpenAlex is the source item used in "stated in" references
const ItemOpenAlex = "Q107507571"
