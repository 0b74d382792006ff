package mirror

import (
	"fmt"
	"net/url"
)

// Window kinds for date-bounded fact collections
const (
	windowNone     = ""
	windowMinMax   = "minmax"   // minDate / maxDate
	windowStartEnd = "startend" // startDate / endDate
)

// Collection describes one planner collection and how it lands in the
// warehouse
type Collection struct {
	// Name is the checkpoint key
	Name string

	// Path is the planner API path
	Path string

	// Table is the warehouse target table
	Table string

	// PK is the merge key column; rows without it get a synthesized one
	PK string

	// TSField guards updates during the MERGE; empty means unconditional
	TSField string

	// ModifiedAfter marks collections that support delta fetches
	ModifiedAfter bool

	// Window selects the date-bound parameter pair, empty for dimensions
	Window string

	// PartitionField installs day partitioning on new targets
	PartitionField string

	// SingleObject collections answer one unpaged object
	SingleObject bool

	// FixedParams always ride along on the fetch
	FixedParams url.Values
}

// Windowed reports whether the collection is date-bounded
func (c Collection) Windowed() bool { return c.Window != windowNone }

func dim(name, path string) Collection {
	return Collection{
		Name:          name,
		Path:          path,
		Table:         "runn_" + name,
		PK:            "id",
		TSField:       "updatedAt",
		ModifiedAfter: true,
	}
}

// Catalog lists every mirrored collection in sync order. Dimensions first,
// then the date-windowed facts
func Catalog() []Collection {
	return []Collection{
		dim("clients", "/clients"),
		dim("people", "/people"),
		dim("placeholders", "/placeholders"),
		dim("roles", "/roles"),
		dim("teams", "/teams"),
		dim("skills", "/skills"),
		dim("people_tags", "/people-tags"),
		dim("project_tags", "/project-tags"),
		dim("rate_cards", "/rate-cards"),
		dim("holiday_groups", "/holiday-groups"),
		dim("custom_fields", "/custom-fields"),
		dim("users", "/users"),
		dim("workstreams", "/workstreams"),
		dim("contracts", "/contracts"),
		dim("projects", "/projects"),
		{
			Name:         "me",
			Path:         "/me",
			Table:        "runn_me",
			PK:           "id",
			SingleObject: true,
		},
		{
			Name:    "timeoffs_leave",
			Path:    "/time-offs/leave",
			Table:   "runn_timeoffs_leave",
			PK:      "id",
			TSField: "updatedAt",
			Window:  windowStartEnd,
		},
		{
			Name:    "timeoffs_rostered",
			Path:    "/time-offs/rostered-off",
			Table:   "runn_timeoffs_rostered",
			PK:      "id",
			TSField: "updatedAt",
			Window:  windowStartEnd,
		},
		{
			Name:    "timeoffs_holidays",
			Path:    "/time-offs/holidays",
			Table:   "runn_timeoffs_holidays",
			PK:      "id",
			TSField: "updatedAt",
			Window:  windowStartEnd,
		},
		{
			Name:    "assignments",
			Path:    "/assignments",
			Table:   "runn_assignments",
			PK:      "id",
			TSField: "updatedAt",
			Window:  windowStartEnd,
		},
		{
			Name:           "actuals",
			Path:           "/actuals",
			Table:          "runn_actuals",
			PK:             "id",
			TSField:        "updatedAt",
			Window:         windowMinMax,
			PartitionField: "date",
		},
	}
}

// CatalogByName indexes the catalog for lookups
func CatalogByName() map[string]Collection {
	m := map[string]Collection{}
	for _, c := range Catalog() {
		m[c.Name] = c
	}
	return m
}

// subResource is a per-project collection; rows get projectId attached
type subResource struct {
	Collection
	path func(projectID int64) string
}

func projectSubResources() []subResource {
	sub := func(name, leaf, window, partition string) subResource {
		return subResource{
			Collection: Collection{
				Name:           name,
				Table:          "runn_" + name,
				PK:             "id",
				TSField:        "updatedAt",
				Window:         window,
				PartitionField: partition,
			},
			path: func(pid int64) string {
				return fmt.Sprintf("/projects/%d/%s", pid, leaf)
			},
		}
	}
	return []subResource{
		sub("phases", "phases", windowNone, ""),
		sub("milestones", "milestones", windowStartEnd, ""),
		sub("project_rates", "project-rates", windowNone, ""),
		sub("notes", "notes", windowNone, ""),
		sub("people_on_project", "people", windowNone, ""),
		sub("project_assignments", "assignments", windowStartEnd, ""),
		sub("project_actuals", "actuals", windowMinMax, "date"),
	}
}

// holidaysDetail is the flattened holiday-group membership table
var holidaysDetail = Collection{
	Name:    "holidays",
	Table:   "runn_holidays",
	PK:      "id",
	TSField: "updatedAt",
}
