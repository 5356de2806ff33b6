package gramps

import (
	"net/http"
	"strings"
)

// Endpoint is one Gramps Web API route. Path is relative to the API root and may
// carry {placeholders} filled from path parameters.
type Endpoint struct {
	Method string
	Path   string

	// QueryParams sends params as a query string even for POST.
	QueryParams bool
	// Cacheable marks single-record reads whose responses may be cached.
	Cacheable bool
}

func (e Endpoint) String() string { return e.Method + " " + e.Path }

// Kind is the collection name of a record type in the API.
type Kind string

const (
	People       Kind = "people"
	Families     Kind = "families"
	Events       Kind = "events"
	Places       Kind = "places"
	Citations    Kind = "citations"
	Sources      Kind = "sources"
	Repositories Kind = "repositories"
	Media        Kind = "media"
	Notes        Kind = "notes"
	Tags         Kind = "tags"
)

// objectTypes maps singular object type names, as used in search results and
// transaction logs, to their collections.
var objectTypes = map[string]Kind{
	"person":     People,
	"family":     Families,
	"event":      Events,
	"place":      Places,
	"citation":   Citations,
	"source":     Sources,
	"repository": Repositories,
	"media":      Media,
	"note":       Notes,
	"tag":        Tags,
}

// KindFor returns the collection for an object type such as "Person" or
// "family". Matching ignores case.
func KindFor(objectType string) (Kind, bool) {
	k, ok := objectTypes[strings.ToLower(objectType)]
	return k, ok
}

// RecordKinds lists the collections that expose list/get/create/update/delete.
var RecordKinds = []Kind{People, Families, Events, Places, Citations, Sources, Repositories, Media, Notes, Tags}

// List returns the collection listing endpoint, e.g. GET people/.
func (k Kind) List() Endpoint { return Endpoint{Method: http.MethodGet, Path: string(k) + "/"} }

// Get returns the single-record endpoint, e.g. GET people/{handle}.
func (k Kind) Get() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: string(k) + "/{handle}", Cacheable: true}
}

// Create returns the POST endpoint for a new record.
func (k Kind) Create() Endpoint { return Endpoint{Method: http.MethodPost, Path: string(k) + "/"} }

// Update returns the PUT endpoint for an existing record.
func (k Kind) Update() Endpoint { return Endpoint{Method: http.MethodPut, Path: string(k) + "/{handle}"} }

// Delete returns the DELETE endpoint for a record.
func (k Kind) Delete() Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: string(k) + "/{handle}"}
}

// Routes that do not follow the plain record pattern.
var (
	PersonTimeline   = Endpoint{Method: http.MethodGet, Path: "people/{handle}/timeline", Cacheable: true}
	PersonDNAMatches = Endpoint{Method: http.MethodGet, Path: "people/{handle}/dna/matches"}
	FamilyTimeline   = Endpoint{Method: http.MethodGet, Path: "families/{handle}/timeline", Cacheable: true}
	EventSpan        = Endpoint{Method: http.MethodGet, Path: "events/{handle1}/span/{handle2}"}
	MediaFile        = Endpoint{Method: http.MethodGet, Path: "media/{handle}/file"}
	MediaFileReplace = Endpoint{Method: http.MethodPut, Path: "media/{handle}/file"}

	Search = Endpoint{Method: http.MethodGet, Path: "search/"}

	Relations    = Endpoint{Method: http.MethodGet, Path: "relations/{handle1}/{handle2}"}
	RelationsAll = Endpoint{Method: http.MethodGet, Path: "relations/{handle1}/{handle2}/all"}
	Living       = Endpoint{Method: http.MethodGet, Path: "living/{handle}"}
	LivingDates  = Endpoint{Method: http.MethodGet, Path: "living/{handle}/dates"}

	TimelinePeople   = Endpoint{Method: http.MethodGet, Path: "timelines/people"}
	TimelineFamilies = Endpoint{Method: http.MethodGet, Path: "timelines/families"}
	Facts            = Endpoint{Method: http.MethodGet, Path: "facts/"}

	TransactionHistory = Endpoint{Method: http.MethodGet, Path: "transactions/history/"}
	Transaction        = Endpoint{Method: http.MethodGet, Path: "transactions/history/{transaction_id}/"}

	Types               = Endpoint{Method: http.MethodGet, Path: "types/"}
	TypesDefault        = Endpoint{Method: http.MethodGet, Path: "types/default"}
	TypesDefaultForType = Endpoint{Method: http.MethodGet, Path: "types/default/{datatype}"}
	TypesDefaultMap     = Endpoint{Method: http.MethodGet, Path: "types/default/{datatype}/map"}

	Reports         = Endpoint{Method: http.MethodGet, Path: "reports/"}
	Report          = Endpoint{Method: http.MethodGet, Path: "reports/{report_id}"}
	ReportFile      = Endpoint{Method: http.MethodGet, Path: "reports/{report_id}/file"}
	ReportGenerate  = Endpoint{Method: http.MethodPost, Path: "reports/{report_id}/file", QueryParams: true}
	ReportProcessed = Endpoint{Method: http.MethodGet, Path: "reports/{report_id}/file/processed/{filename}"}

	TaskStatus = Endpoint{Method: http.MethodGet, Path: "tasks/{task_id}"}

	Holidays     = Endpoint{Method: http.MethodGet, Path: "holidays/"}
	HolidaysDate = Endpoint{Method: http.MethodGet, Path: "holidays/{country}/{year}/{month}/{day}"}

	ParseDNAMatch = Endpoint{Method: http.MethodPost, Path: "parsers/dna-match"}

	Trees = Endpoint{Method: http.MethodGet, Path: "trees/"}
	Tree  = Endpoint{Method: http.MethodGet, Path: "trees/{tree_id}"}
)

// Catalogue returns every known endpoint, record routes first.
func Catalogue() []Endpoint {
	var out []Endpoint
	for _, k := range RecordKinds {
		out = append(out, k.List(), k.Create(), k.Get(), k.Update(), k.Delete())
	}
	return append(out,
		PersonTimeline, PersonDNAMatches, FamilyTimeline, EventSpan, MediaFile, MediaFileReplace,
		Search, Relations, RelationsAll, Living, LivingDates,
		TimelinePeople, TimelineFamilies, Facts,
		TransactionHistory, Transaction,
		Types, TypesDefault, TypesDefaultForType, TypesDefaultMap,
		Reports, Report, ReportFile, ReportGenerate, ReportProcessed,
		TaskStatus, Holidays, HolidaysDate, ParseDNAMatch, Trees, Tree,
	)
}
