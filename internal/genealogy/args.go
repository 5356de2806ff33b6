package genealogy

// FindTypeArgs contains parameters for searching one record type with GQL
type FindTypeArgs struct {
	Type       string `json:"type" jsonschema:"Record type: person, family, event, place, source, citation, media, repository or note"`
	GQL        string `json:"gql,omitempty" jsonschema:"Gramps Query Language filter, e.g. primary_name.first_name ~ \"Anna\""`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of records to return (default 20)"`
}

// FindAnythingArgs contains parameters for full-text search
type FindAnythingArgs struct {
	Query      string `json:"query" jsonschema:"Literal text to search for across all records"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of records to return (default 20)"`
}

// GetTypeArgs contains parameters for the detailed person or family view
type GetTypeArgs struct {
	Type     string `json:"type" jsonschema:"person or family"`
	Handle   string `json:"handle,omitempty" jsonschema:"Record handle"`
	GrampsID string `json:"gramps_id,omitempty" jsonschema:"Gramps ID such as I0001 or F0001, used when no handle is given"`
}

// EventRef links a person or family to an event
type EventRef struct {
	Ref  string `json:"ref" jsonschema:"Handle of the event"`
	Role string `json:"role" jsonschema:"Role in the event, e.g. Primary, Family, Witness"`
}

// CreatePersonArgs contains parameters for creating or updating a person
type CreatePersonArgs struct {
	Handle           string           `json:"handle,omitempty" jsonschema:"Handle of the person to update; omit to create"`
	GrampsID         string           `json:"gramps_id,omitempty" jsonschema:"Gramps ID to assign"`
	PrimaryName      map[string]any   `json:"primary_name" jsonschema:"Name object with first_name and surname_list [{surname, primary}]"`
	Gender           *int             `json:"gender" jsonschema:"Gender: 0 female, 1 male, 2 unknown"`
	EventRefList     []EventRef       `json:"event_ref_list,omitempty" jsonschema:"Events the person took part in"`
	FamilyList       []string         `json:"family_list,omitempty" jsonschema:"Handles of families where the person is a parent"`
	ParentFamilyList []string         `json:"parent_family_list,omitempty" jsonschema:"Handles of the families of the person's parents"`
	URLs             []map[string]any `json:"urls,omitempty" jsonschema:"URLs as {path, desc, type}"`
	NoteList         []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	MediaList        []map[string]any `json:"media_list,omitempty" jsonschema:"Media references as {ref}"`
	AttributeList    []map[string]any `json:"attribute_list,omitempty" jsonschema:"Attributes as {type, value}"`
	TagList          []string         `json:"tag_list,omitempty" jsonschema:"Tag handles"`
	Private          *bool            `json:"private,omitempty" jsonschema:"Whether the record is private"`
	Change           *int64           `json:"change,omitempty" jsonschema:"Last modification time, epoch seconds"`
}

// CreateFamilyArgs contains parameters for creating or updating a family
type CreateFamilyArgs struct {
	Handle       string           `json:"handle,omitempty" jsonschema:"Handle of the family to update; omit to create"`
	FatherHandle string           `json:"father_handle,omitempty" jsonschema:"Handle of the father"`
	MotherHandle string           `json:"mother_handle,omitempty" jsonschema:"Handle of the mother"`
	ChildHandles []string         `json:"child_handles,omitempty" jsonschema:"Handles of the children"`
	EventRefList []EventRef       `json:"event_ref_list,omitempty" jsonschema:"Family events such as Marriage, usually with role Family"`
	NoteList     []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	URLs         []map[string]any `json:"urls,omitempty" jsonschema:"URLs as {path, desc, type}"`
	MediaList    []map[string]any `json:"media_list,omitempty" jsonschema:"Media references as {ref}"`
}

// CreateEventArgs contains parameters for creating or updating an event
type CreateEventArgs struct {
	Handle       string         `json:"handle,omitempty" jsonschema:"Handle of the event to update; omit to create"`
	Type         string         `json:"type" jsonschema:"Event type such as Birth, Death, Marriage, Baptism, Residence"`
	Date         map[string]any `json:"date,omitempty" jsonschema:"Date object: dateval [day, month, year, false], quality 0-2, modifier 0-8"`
	Description  string         `json:"description,omitempty" jsonschema:"Event description"`
	Place        string         `json:"place,omitempty" jsonschema:"Handle of the place where the event happened"`
	CitationList []string       `json:"citation_list" jsonschema:"Handles of the citations supporting the event"`
	NoteList     []string       `json:"note_list,omitempty" jsonschema:"Note handles"`
}

// CreatePlaceArgs contains parameters for creating or updating a place
type CreatePlaceArgs struct {
	Handle       string           `json:"handle,omitempty" jsonschema:"Handle of the place to update; omit to create"`
	GrampsID     string           `json:"gramps_id,omitempty" jsonschema:"Gramps ID to assign"`
	Name         map[string]any   `json:"name,omitempty" jsonschema:"Place name object, {value}"`
	Code         string           `json:"code,omitempty" jsonschema:"Place code"`
	AltLoc       []map[string]any `json:"alt_loc,omitempty" jsonschema:"Alternative locations"`
	PlaceType    string           `json:"place_type" jsonschema:"Place type such as City, Parish, County, Country, Farm"`
	PlacerefList []map[string]any `json:"placeref_list,omitempty" jsonschema:"Enclosing places as {ref}"`
	AltNames     []map[string]any `json:"alt_names,omitempty" jsonschema:"Alternative names as {value}"`
	Lat          string           `json:"lat,omitempty" jsonschema:"Latitude"`
	Long         string           `json:"long,omitempty" jsonschema:"Longitude"`
	URLs         []map[string]any `json:"urls,omitempty" jsonschema:"URLs as {path, desc, type}"`
	MediaList    []map[string]any `json:"media_list,omitempty" jsonschema:"Media references as {ref}"`
	CitationList []string         `json:"citation_list,omitempty" jsonschema:"Citation handles"`
	NoteList     []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	TagList      []string         `json:"tag_list,omitempty" jsonschema:"Tag handles"`
	Private      *bool            `json:"private,omitempty" jsonschema:"Whether the record is private"`
}

// CreateSourceArgs contains parameters for creating or updating a source
type CreateSourceArgs struct {
	Handle        string           `json:"handle,omitempty" jsonschema:"Handle of the source to update; omit to create"`
	GrampsID      string           `json:"gramps_id,omitempty" jsonschema:"Gramps ID to assign"`
	Title         string           `json:"title" jsonschema:"Source title"`
	Author        string           `json:"author,omitempty" jsonschema:"Author"`
	Pubinfo       string           `json:"pubinfo,omitempty" jsonschema:"Publication information"`
	Abbrev        string           `json:"abbrev,omitempty" jsonschema:"Abbreviation"`
	ReporefList   []map[string]any `json:"reporef_list,omitempty" jsonschema:"Repositories holding the source as {ref, call_number, media_type}"`
	NoteList      []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	MediaList     []map[string]any `json:"media_list,omitempty" jsonschema:"Media references as {ref}"`
	AttributeList []map[string]any `json:"attribute_list,omitempty" jsonschema:"Attributes as {type, value}"`
	TagList       []string         `json:"tag_list,omitempty" jsonschema:"Tag handles"`
	Private       *bool            `json:"private,omitempty" jsonschema:"Whether the record is private"`
}

// CreateCitationArgs contains parameters for creating or updating a citation
type CreateCitationArgs struct {
	Handle        string           `json:"handle,omitempty" jsonschema:"Handle of the citation to update; omit to create"`
	GrampsID      string           `json:"gramps_id,omitempty" jsonschema:"Gramps ID to assign"`
	SourceHandle  string           `json:"source_handle" jsonschema:"Handle of the cited source"`
	Page          string           `json:"page,omitempty" jsonschema:"Page or location within the source"`
	Date          map[string]any   `json:"date,omitempty" jsonschema:"Date object: dateval [day, month, year, false], quality 0-2, modifier 0-8"`
	Confidence    *int             `json:"confidence,omitempty" jsonschema:"Confidence level from 0 (very low) to 4 (very high)"`
	NoteList      []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	MediaList     []map[string]any `json:"media_list,omitempty" jsonschema:"Media references as {ref}"`
	AttributeList []map[string]any `json:"attribute_list,omitempty" jsonschema:"Attributes as {type, value}"`
	TagList       []string         `json:"tag_list,omitempty" jsonschema:"Tag handles"`
	Private       *bool            `json:"private,omitempty" jsonschema:"Whether the record is private"`
}

// CreateNoteArgs contains parameters for creating or updating a note
type CreateNoteArgs struct {
	Handle string `json:"handle,omitempty" jsonschema:"Handle of the note to update; omit to create"`
	Text   string `json:"text" jsonschema:"Note text"`
	Type   string `json:"type" jsonschema:"Note type such as General, Research, Transcript"`
}

// CreateMediaArgs contains parameters for creating or updating a media object
type CreateMediaArgs struct {
	Handle       string         `json:"handle,omitempty" jsonschema:"Handle of the media object to update; omit to upload a new file"`
	FileLocation string         `json:"file_location,omitempty" jsonschema:"Path of the file to upload, required when creating"`
	Desc         string         `json:"desc" jsonschema:"Media description"`
	Path         string         `json:"path,omitempty" jsonschema:"Stored path of the media file"`
	Description  string         `json:"description,omitempty" jsonschema:"Longer description"`
	Mime         string         `json:"mime,omitempty" jsonschema:"MIME type, guessed from the file when omitted"`
	CitationList []string       `json:"citation_list,omitempty" jsonschema:"Citation handles"`
	NoteList     []string       `json:"note_list,omitempty" jsonschema:"Note handles"`
	Date         map[string]any `json:"date,omitempty" jsonschema:"Date object: dateval [day, month, year, false], quality 0-2, modifier 0-8"`
}

// CreateRepositoryArgs contains parameters for creating or updating a repository
type CreateRepositoryArgs struct {
	Handle        string           `json:"handle,omitempty" jsonschema:"Handle of the repository to update; omit to create"`
	GrampsID      string           `json:"gramps_id,omitempty" jsonschema:"Gramps ID to assign"`
	Name          string           `json:"name" jsonschema:"Repository name"`
	Type          string           `json:"type" jsonschema:"Repository type such as Archive, Library, Church, Web site"`
	URLs          []map[string]any `json:"urls,omitempty" jsonschema:"URLs as {path, desc, type}"`
	NoteList      []string         `json:"note_list,omitempty" jsonschema:"Note handles"`
	AttributeList []map[string]any `json:"attribute_list,omitempty" jsonschema:"Attributes as {type, value}"`
	TagList       []string         `json:"tag_list,omitempty" jsonschema:"Tag handles"`
	Private       *bool            `json:"private,omitempty" jsonschema:"Whether the record is private"`
}

// TreeStatsArgs contains parameters for tree information
type TreeStatsArgs struct {
	IncludeStatistics *bool `json:"include_statistics,omitempty" jsonschema:"Include record counts and storage usage (default true)"`
}

// LineageArgs contains parameters for descendant and ancestor reports
type LineageArgs struct {
	GrampsID       string `json:"gramps_id" jsonschema:"Gramps ID of the starting person, e.g. I0001"`
	MaxGenerations int    `json:"max_generations,omitempty" jsonschema:"Number of generations to include (default 5); keep it small"`
}

// RecentChangesArgs contains parameters for the transaction history
type RecentChangesArgs struct {
	Page     int     `json:"page,omitempty" jsonschema:"Page number"`
	Pagesize int     `json:"pagesize,omitempty" jsonschema:"Transactions per page"`
	Before   float64 `json:"before,omitempty" jsonschema:"Only transactions before this epoch timestamp"`
	After    float64 `json:"after,omitempty" jsonschema:"Only transactions after this epoch timestamp"`
	Old      bool    `json:"old,omitempty" jsonschema:"Include the old version of changed objects"`
	New      bool    `json:"new,omitempty" jsonschema:"Include the new version of changed objects"`
}
