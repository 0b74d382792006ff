package reconcile

import (
	"context"

	"hrhub/internal/adapters/ats"
	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
	"hrhub/internal/services/syncstate/domain"
)

// HRIS is the slice of the HRIS adapter the reconciler consumes
type HRIS interface {
	GetTimeoff(ctx context.Context, timeoffID string) (*hris.Timeoff, error)
	FetchTimeoffWindow(ctx context.Context, start, end string) ([]hris.Timeoff, error)
	FetchPeopleByIDs(ctx context.Context, ids []string) (map[string]hris.PersonSummary, error)
	GetPersonProjected(ctx context.Context, personID, fields string) (*hris.Person, error)
	ForEachPerson(ctx context.Context, fields string, fn func(hris.Person) error) error
	GetJobEmployment(ctx context.Context, jobID string) (string, error)
	FindJob(ctx context.Context, jobID string) (*hris.Job, error)
	GetJobCompensation(ctx context.Context, jobID, schemeField string) (*hris.JobCompensation, error)
	UpsertJobFields(ctx context.Context, jobID string, fields map[string]any) error
	ImportPeopleCSV(ctx context.Context, rows []hris.ImportRow) (*hris.ImportResult, error)
	UniqueWorkEmail(ctx context.Context, firstName, lastName, domain string) (string, error)
}

// Planner is the slice of the planner adapter the reconciler consumes
type Planner interface {
	FindPersonByEmail(ctx context.Context, email string) (*planner.Person, error)
	UpsertPerson(ctx context.Context, in planner.PersonInput) (*planner.Person, error)
	CreateTimeoff(ctx context.Context, cat planner.Category, t planner.Timeoff) (*planner.Timeoff, error)
	UpdateTimeoff(ctx context.Context, cat planner.Category, id int64, t planner.Timeoff) (*planner.Timeoff, error)
	DeleteTimeoff(ctx context.Context, cat planner.Category, id int64) error
	FindOverlap(ctx context.Context, cat planner.Category, personID int64, start, end string) (*planner.Timeoff, error)
	ListPersonContracts(ctx context.Context, personID int64) ([]planner.Contract, error)
	UpdateContractCost(ctx context.Context, contractID int64, costPerHour float64) error
}

// ATS is the slice of the applicant-tracking adapter the reconciler consumes
type ATS interface {
	GetApplication(ctx context.Context, id string) (*ats.Application, error)
	OfferStartDate(ctx context.Context, a *ats.Application) (string, error)
	CreateJob(ctx context.Context, title, body, status string) (string, error)
	UpdateJob(ctx context.Context, jobID, title, status string) error
	ResolveCustomFieldID(ctx context.Context, apiName string) (string, error)
	UpsertJobCustomField(ctx context.Context, jobID, fieldID, value string) error
}

// State persists the time-off mapping and sync metrics
type State interface {
	LoadMapping(ctx context.Context) (*domain.TimeoffMapping, error)
	SaveMapping(ctx context.Context, m *domain.TimeoffMapping) error
	RecordSync(ctx context.Context, kind string, n int64)
	RecordError(ctx context.Context, kind string, cause error)
}
