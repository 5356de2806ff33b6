package tools

// AllTools contains all tool specifications for the Gramps MCP server.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH TOOLS
	// ==========================================================================
	{
		Name:     "find_type",
		Method:   "FindType",
		Title:    "Find Records by Type",
		Category: CategorySearch,
		Description: `Search any entity type using GQL - read gql://documentation resource first to understand syntax.

USE WHEN: User asks "find everyone named X", "list events in 1850", "which places are in county Y", or any structured query on one record type.

NOT FOR: Free-text lookups across all record types (use find_anything). Full person or family views (use get_type).

PARAMETERS:
- type: person, family, event, place, source, citation, media, repository or note (required)
- gql: GQL filter, e.g. primary_name.first_name ~ "Anna" (optional, lists all when empty)
- max_results: Max records (default 20)

RETURNS: "Found N <type>:" followed by one summary per record, each ending in "- gramps_id - [handle]".`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "find_anything",
		Method:   "FindAnything",
		Title:    "Full-Text Search",
		Category: CategorySearch,
		Description: `Text search across all record types - matches literal text within records, not logical combinations.

USE WHEN: User mentions a name, place or phrase without saying what kind of record holds it: "anything about Vang", "search for Berg".

NOT FOR: Conditions such as date ranges or field comparisons (use find_type with GQL).

PARAMETERS:
- query: Literal text (required)
- max_results: Max records (default 20)

RETURNS: "Found N records matching '<query>':" and one summary per hit.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "get_type",
		Method:   "GetType",
		Title:    "Get Person or Family Details",
		Category: CategorySearch,
		Description: `Get full details for person or family by handle or gramps_id.

USE WHEN: User asks "tell me everything about I0001", "who are the parents and children", "show the timeline of this family".

NOT FOR: Other record types (use find_type with a gramps_id filter). Searching by name (use find_type or find_anything first).

PARAMETERS:
- type: person or family (required)
- handle: Record handle (optional)
- gramps_id: Gramps ID such as I0001 or F0001 (used when no handle is given)

RETURNS: A detailed view with relations, a timeline with citations, and attached media and notes.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// WRITE TOOLS
	// ==========================================================================
	{
		Name:       "create_person",
		Method:     "CreatePerson",
		Title:      "Create or Update Person",
		Category:   CategoryWrite,
		RecordType: "person",
		Description: `Create or update person information including family links and event associations.

USE WHEN: User says "add Anna Berg born 1850", "record that I0001 was a farmer", "link this person to a family".

NOT FOR: Creating the family record itself (use create_family). Creating events (use create_event, then pass its handle in event_ref_list).

PARAMETERS:
- primary_name: {first_name, surname_list: [{surname, primary}]} (required)
- gender: 0 female, 1 male, 2 unknown (required)
- handle: Set to update an existing person; lists are extended, not replaced
- event_ref_list: [{ref, role}]
- family_list, parent_family_list, note_list, media_list, urls, attribute_list, tag_list

RETURNS: "Successfully created person:" or "Successfully updated person:" and the saved record.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_family",
		Method:     "CreateFamily",
		Title:      "Create or Update Family",
		Category:   CategoryWrite,
		RecordType: "family",
		Description: `Create or update family unit including member relationships.

USE WHEN: User says "X and Y were married", "add these children to the family", "create a family for these parents".

NOT FOR: Editing the people themselves (use create_person).

PARAMETERS:
- father_handle, mother_handle: Parent handles
- child_handles: Child handles
- event_ref_list: [{ref, role}], usually Marriage with role Family
- handle: Set to update an existing family
- note_list, media_list, urls

RETURNS: "Successfully created family:" and the saved family.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_event",
		Method:     "CreateEvent",
		Title:      "Create or Update Event",
		Category:   CategoryWrite,
		RecordType: "event",
		Description: `Create or update life event including person/place associations.

USE WHEN: User mentions a birth, death, marriage, baptism, census or residence with a date or place.

NOT FOR: Linking the event to a person (pass the returned handle to create_person event_ref_list).

PARAMETERS:
- type: Birth, Death, Marriage, Baptism, Residence, ... (required)
- citation_list: Citation handles (required, may be empty)
- date: {dateval: [day, month, year, false], quality, modifier}
- place: Place handle
- description, note_list, handle

RETURNS: "Successfully created event:" and the saved event.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_place",
		Method:     "CreatePlace",
		Title:      "Create or Update Place",
		Category:   CategoryWrite,
		RecordType: "place",
		Description: `Create or update geographic location.

USE WHEN: User names a farm, parish, town or country that is not in the tree yet. Search with find_type first.

PARAMETERS:
- place_type: City, Parish, County, Country, Farm, ... (required)
- name: {value}
- placeref_list: [{ref}] of the enclosing place
- lat, long, code, alt_names, urls, handle

RETURNS: "Successfully created place:" and the saved place with its hierarchy.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_source",
		Method:     "CreateSource",
		Title:      "Create or Update Source",
		Category:   CategoryWrite,
		RecordType: "source",
		Description: `Create or update source document.

USE WHEN: User cites a church book, census, letter or website that is not in the tree yet.

NOT FOR: Pointing at a page within a source (use create_citation).

PARAMETERS:
- title: Source title (required)
- author, pubinfo, abbrev
- reporef_list: [{ref, call_number, media_type}]
- handle: Set to update

RETURNS: "Successfully created source:" and the saved source.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_citation",
		Method:     "CreateCitation",
		Title:      "Create or Update Citation",
		Category:   CategoryWrite,
		RecordType: "citation",
		Description: `Create or update citation including object associations.

USE WHEN: User gives evidence for a fact: "page 12 of the 1865 census", "entry 34 in the baptism register".

PARAMETERS:
- source_handle: Handle of the cited source (required)
- page: Page or entry
- date: Date object
- confidence: 0 very low to 4 very high
- note_list, media_list, handle

RETURNS: "Successfully created citation:" and the saved citation.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_note",
		Method:     "CreateNote",
		Title:      "Create or Update Note",
		Category:   CategoryWrite,
		RecordType: "note",
		Description: `Create or update textual note including object associations.

USE WHEN: User wants to record research findings, transcripts or open questions.

PARAMETERS:
- text: Note text (required)
- type: General, Research, Transcript, ... (required)
- handle: Set to update

RETURNS: "Successfully created note:" and the saved note. Attach it with note_list on the record.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_media",
		Method:     "CreateMedia",
		Title:      "Create or Update Media",
		Category:   CategoryWrite,
		RecordType: "media",
		Description: `Create or update media files including object associations.

USE WHEN: User wants to upload a photo or scan, or change a media object's description or date.

PARAMETERS:
- desc: Description (required)
- file_location: Local path of the file to upload (required when creating)
- handle: Set to update metadata of existing media
- date, mime, citation_list, note_list

RETURNS: "Successfully created media:" and the saved media object.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:       "create_repository",
		Method:     "CreateRepository",
		Title:      "Create or Update Repository",
		Category:   CategoryWrite,
		RecordType: "repository",
		Description: `Create or update repository information.

USE WHEN: User names an archive, library or website that holds sources.

PARAMETERS:
- name: Repository name (required)
- type: Archive, Library, Church, Web site, ... (required)
- urls, note_list, handle

RETURNS: "Successfully created repository:" and the saved repository.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},

	// ==========================================================================
	// ANALYSIS TOOLS
	// ==========================================================================
	{
		Name:     "tree_stats",
		Method:   "TreeStats",
		Title:    "Tree Statistics",
		Category: CategoryAnalysis,
		Description: `Get information about a specific tree including statistics (counts of people, families, events, etc.).

USE WHEN: User asks "how big is the tree", "what tree am I working on".

PARAMETERS:
- include_statistics: Include statistics (default true)

RETURNS: Tree name, ID, description, people count and media storage use.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "get_descendants",
		Method:   "GetDescendants",
		Title:    "Descendant Report",
		Category: CategoryAnalysis,
		Description: `Find all descendants of a person - WARNING: Very token-heavy operation, minimize generations (default: 5).

USE WHEN: User asks "who are the descendants of I0001", "list children and grandchildren".

NOT FOR: Direct children only (use get_type on the person).

PARAMETERS:
- gramps_id: Person ID (required)
- max_generations: Generations to include (default 5)

RETURNS: The Gramps descendant report as Markdown.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "get_ancestors",
		Method:   "GetAncestors",
		Title:    "Ancestor Report",
		Category: CategoryAnalysis,
		Description: `Find all ancestors of a person - WARNING: Very token-heavy operation, minimize generations (default: 5).

USE WHEN: User asks "who were the ancestors of I0001", "show the pedigree".

NOT FOR: Parents only (use get_type on the person).

PARAMETERS:
- gramps_id: Person ID (required)
- max_generations: Generations to include (default 5)

RETURNS: The Gramps ancestor report as Markdown.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "recent_changes",
		Method:   "RecentChanges",
		Title:    "Recent Changes",
		Category: CategoryAnalysis,
		Description: `Get recent changes/modifications to the family tree.

USE WHEN: User asks "what changed lately", "what did I add yesterday".

PARAMETERS:
- page, pagesize: Paging
- before, after: Epoch timestamps bounding the transactions

RETURNS: Transactions newest first with time, user and the first changed objects.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}
