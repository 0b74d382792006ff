package snapshot

import (
	"context"
	"strings"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/platform/state"
)

// Columns is the exact header of the engagement-platform CSV, in order
var Columns = []string{
	"Employee Id",
	"Email",
	"Name",
	"Preferred Name",
	"Manager Email",
	"Manager",
	"Location",
	"Job Title",
	"Seniority",
	"Start Date",
	"End Date",
	"Department",
	"Country",
	"Employment Type",
	"Gender",
}

// colIndex maps a column name onto its position
var colIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

// Row is one snapshot record with its identity and change-detection hash
type Row struct {
	EmployeeID string
	PersonID   string
	Values     []string
	Hash       string
}

// Get returns a column value by name
func (r Row) Get(column string) string {
	i, ok := colIndex[column]
	if !ok || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// set mutates a column value in place
func (r Row) set(column, value string) {
	if i, ok := colIndex[column]; ok && i < len(r.Values) {
		r.Values[i] = value
	}
}

// hashRow digests the row as a column→value map so the hash is independent
// of column order
func hashRow(values []string) (string, error) {
	m := make(map[string]string, len(Columns))
	for i, c := range Columns {
		if i < len(values) {
			m[c] = values[i]
		}
	}
	return state.Digest(m)
}

// buildRow flattens one HRIS person into a snapshot row. People without a
// work email produce (zero Row, false)
func (s *Service) buildRow(ctx context.Context, p hris.Person, jobCache map[string]string) (Row, bool, error) {
	email := strings.TrimSpace(p.WorkEmail)
	if email == "" {
		return Row{}, false, nil
	}

	empID := strings.TrimSpace(p.EmployeeID)
	if empID == "" {
		empID = strings.TrimSpace(p.ID)
	}
	if empID == "" {
		empID = email
	}

	prefFirst := strings.TrimSpace(p.NamePref)
	nameFirst := prefFirst
	if nameFirst == "" {
		nameFirst = strings.TrimSpace(p.NameFirst)
	}
	nameLast := strings.TrimSpace(p.NamePrefLast)
	if nameLast == "" {
		nameLast = strings.TrimSpace(p.NameLast)
	}
	name := strings.TrimSpace(nameFirst + " " + nameLast)

	employment, err := s.resolveEmployment(ctx, p, jobCache)
	if err != nil {
		return Row{}, false, err
	}

	managerEmail := strings.TrimSpace(p.ManagerWorkEmail)
	values := []string{
		empID,
		email,
		name,
		prefFirst,
		managerEmail,
		managerEmail,
		strings.TrimSpace(p.City),
		strings.TrimSpace(p.Title),
		strings.TrimSpace(p.Seniority),
		hris.NormDate(p.StartDateOrg),
		hris.NormDate(p.EndDateOrg),
		strings.TrimSpace(p.Department),
		strings.TrimSpace(p.Country),
		employment,
		strings.TrimSpace(p.Gender),
	}
	hash, err := hashRow(values)
	if err != nil {
		return Row{}, false, err
	}
	return Row{EmployeeID: empID, PersonID: strings.TrimSpace(p.ID), Values: values, Hash: hash}, true, nil
}

// resolveEmployment prefers the person's own employment type and falls back
// to the containing job, memoized per run
func (s *Service) resolveEmployment(ctx context.Context, p hris.Person, jobCache map[string]string) (string, error) {
	if et := strings.TrimSpace(p.EmploymentType); et != "" {
		return et, nil
	}
	jobID := strings.TrimSpace(p.JobID)
	if jobID == "" {
		return "", nil
	}
	if et, ok := jobCache[jobID]; ok {
		return et, nil
	}
	et, err := s.hris.GetJobEmployment(ctx, jobID)
	if err != nil {
		return "", err
	}
	jobCache[jobID] = et
	if et != "" {
		s.log.Debug().Str("person_id", p.ID).Str("job_id", jobID).
			Msg("employment type resolved from job")
	}
	return et, nil
}
