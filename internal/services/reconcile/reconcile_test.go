package reconcile

import (
	"context"
	"testing"
	"time"

	"hrhub/internal/adapters/ats"
	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
	"hrhub/internal/platform/state"
	"hrhub/internal/services/syncstate/repo"
)

type fakeHRIS struct {
	timeoffs      map[string]*hris.Timeoff
	people        map[string]*hris.Person
	summaries     map[string]hris.PersonSummary
	jobs          map[string]*hris.Job
	jobComp       map[string]*hris.JobCompensation
	jobEmployment map[string]string
	jobPatches    []map[string]any
	imports       [][]hris.ImportRow
	uniqueEmail   string
}

func (f *fakeHRIS) GetTimeoff(ctx context.Context, id string) (*hris.Timeoff, error) {
	return f.timeoffs[id], nil
}

func (f *fakeHRIS) FetchTimeoffWindow(ctx context.Context, start, end string) ([]hris.Timeoff, error) {
	var out []hris.Timeoff
	for _, t := range f.timeoffs {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeHRIS) FetchPeopleByIDs(ctx context.Context, ids []string) (map[string]hris.PersonSummary, error) {
	out := map[string]hris.PersonSummary{}
	for _, id := range ids {
		if s, ok := f.summaries[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeHRIS) GetPersonProjected(ctx context.Context, id, fields string) (*hris.Person, error) {
	return f.people[id], nil
}

func (f *fakeHRIS) ForEachPerson(ctx context.Context, fields string, fn func(hris.Person) error) error {
	for _, p := range f.people {
		if err := fn(*p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeHRIS) GetJobEmployment(ctx context.Context, jobID string) (string, error) {
	return f.jobEmployment[jobID], nil
}

func (f *fakeHRIS) FindJob(ctx context.Context, jobID string) (*hris.Job, error) {
	return f.jobs[jobID], nil
}

func (f *fakeHRIS) GetJobCompensation(ctx context.Context, jobID, schemeField string) (*hris.JobCompensation, error) {
	return f.jobComp[jobID], nil
}

func (f *fakeHRIS) UpsertJobFields(ctx context.Context, jobID string, fields map[string]any) error {
	patch := map[string]any{"jobId": jobID}
	for k, v := range fields {
		patch[k] = v
	}
	f.jobPatches = append(f.jobPatches, patch)
	return nil
}

func (f *fakeHRIS) ImportPeopleCSV(ctx context.Context, rows []hris.ImportRow) (*hris.ImportResult, error) {
	f.imports = append(f.imports, rows)
	return &hris.ImportResult{ImportID: "imp-1", Rows: len(rows), Submitted: true}, nil
}

func (f *fakeHRIS) UniqueWorkEmail(ctx context.Context, first, last, domain string) (string, error) {
	return f.uniqueEmail, nil
}

type fakePlanner struct {
	people    map[string]*planner.Person
	contracts map[int64][]planner.Contract
	nextID    int64

	created  []planner.Timeoff
	updated  []int64
	deleted  []int64
	upserted []planner.PersonInput
	patched  map[int64]float64

	updateErr error
}

func (f *fakePlanner) FindPersonByEmail(ctx context.Context, email string) (*planner.Person, error) {
	return f.people[email], nil
}

func (f *fakePlanner) UpsertPerson(ctx context.Context, in planner.PersonInput) (*planner.Person, error) {
	f.upserted = append(f.upserted, in)
	if p, ok := f.people[in.Email]; ok {
		return p, nil
	}
	f.nextID++
	return &planner.Person{ID: f.nextID, Email: in.Email}, nil
}

func (f *fakePlanner) CreateTimeoff(ctx context.Context, cat planner.Category, t planner.Timeoff) (*planner.Timeoff, error) {
	f.created = append(f.created, t)
	f.nextID++
	t.ID = f.nextID
	return &t, nil
}

func (f *fakePlanner) UpdateTimeoff(ctx context.Context, cat planner.Category, id int64, t planner.Timeoff) (*planner.Timeoff, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, id)
	t.ID = id
	return &t, nil
}

func (f *fakePlanner) DeleteTimeoff(ctx context.Context, cat planner.Category, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePlanner) FindOverlap(ctx context.Context, cat planner.Category, personID int64, start, end string) (*planner.Timeoff, error) {
	return nil, nil
}

func (f *fakePlanner) ListPersonContracts(ctx context.Context, personID int64) ([]planner.Contract, error) {
	return f.contracts[personID], nil
}

func (f *fakePlanner) UpdateContractCost(ctx context.Context, contractID int64, cost float64) error {
	if f.patched == nil {
		f.patched = map[int64]float64{}
	}
	f.patched[contractID] = cost
	return nil
}

type fakeATS struct {
	app       *ats.Application
	startDate string

	createdJobs []map[string]string
	updatedJobs []map[string]string
	fieldIDs    map[string]string
	fieldValues []map[string]string
}

func (f *fakeATS) GetApplication(ctx context.Context, id string) (*ats.Application, error) {
	return f.app, nil
}

func (f *fakeATS) OfferStartDate(ctx context.Context, a *ats.Application) (string, error) {
	return f.startDate, nil
}

func (f *fakeATS) CreateJob(ctx context.Context, title, body, status string) (string, error) {
	f.createdJobs = append(f.createdJobs, map[string]string{"title": title, "status": status})
	return "tt-1", nil
}

func (f *fakeATS) UpdateJob(ctx context.Context, jobID, title, status string) error {
	f.updatedJobs = append(f.updatedJobs, map[string]string{"id": jobID, "title": title, "status": status})
	return nil
}

func (f *fakeATS) ResolveCustomFieldID(ctx context.Context, apiName string) (string, error) {
	return f.fieldIDs[apiName], nil
}

func (f *fakeATS) UpsertJobCustomField(ctx context.Context, jobID, fieldID, value string) error {
	f.fieldValues = append(f.fieldValues, map[string]string{"job": jobID, "field": fieldID, "value": value})
	return nil
}

func newTestService(t *testing.T, h *fakeHRIS, p *fakePlanner, a *fakeATS, opts Options) (*Service, *repo.Repo) {
	t.Helper()
	st := repo.New(state.NewMemory())
	if h.timeoffs == nil {
		h.timeoffs = map[string]*hris.Timeoff{}
	}
	if h.people == nil {
		h.people = map[string]*hris.Person{}
	}
	if p.people == nil {
		p.people = map[string]*planner.Person{}
	}
	return New(h, p, a, st, opts), st
}

func approvedLeave(id string) *hris.Timeoff {
	return &hris.Timeoff{
		ID:          id,
		PersonID:    "p-5",
		StartDate:   "2025-04-10T00:00:00Z",
		EndDate:     "2025-04-12T00:00:00Z",
		Status:      "approved",
		Reason:      "vacation",
		PersonEmail: "ana@x.io",
	}
}

func TestSyncTimeoffCreatesAndMaps(t *testing.T) {
	h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-7": approvedLeave("to-7")}}
	p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42, Email: "ana@x.io"}}}
	s, st := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncTimeoff(context.Background(), "to-7")
	if res.Status != StatusSynced {
		t.Fatalf("result = %+v", res)
	}
	if len(p.created) != 1 {
		t.Fatalf("created = %+v", p.created)
	}
	got := p.created[0]
	if got.PersonID != 42 || got.StartDate != "2025-04-10" || got.EndDate != "2025-04-12" {
		t.Fatalf("payload = %+v", got)
	}
	if got.Note != "ChartHop:to-7 • vacation" {
		t.Fatalf("note = %q", got.Note)
	}

	m, err := st.LoadMapping(context.Background())
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	entry, ok := m.Get("to-7")
	if !ok || entry.Category != "leave" || entry.PlannerID != res.PlannerID {
		t.Fatalf("mapping = %+v", entry)
	}
}

func TestSyncTimeoffReplayUpdatesNotCreates(t *testing.T) {
	h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-7": approvedLeave("to-7")}}
	p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42}}}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	first := s.SyncTimeoff(context.Background(), "to-7")
	second := s.SyncTimeoff(context.Background(), "to-7")

	if first.Status != StatusSynced || second.Status != StatusUpdated {
		t.Fatalf("statuses = %s, %s", first.Status, second.Status)
	}
	if len(p.created) != 1 || len(p.updated) != 1 {
		t.Fatalf("created=%d updated=%d", len(p.created), len(p.updated))
	}
	if p.updated[0] != first.PlannerID {
		t.Fatalf("updated id = %d, want %d", p.updated[0], first.PlannerID)
	}
}

func TestSyncTimeoffSkipStatusesNeverWrite(t *testing.T) {
	for _, status := range []string{"denied", "rejected", "cancelled", "draft", "pending", "withdrawn"} {
		entry := approvedLeave("to-1")
		entry.Status = status
		h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-1": entry}}
		p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42}}}
		s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

		res := s.SyncTimeoff(context.Background(), "to-1")
		if res.Status != StatusSkipped {
			t.Fatalf("status %s: result = %+v", status, res)
		}
		if len(p.created) != 0 || len(p.updated) != 0 {
			t.Fatalf("status %s produced a downstream write", status)
		}
	}
}

func TestSyncTimeoffEmailFallbackChain(t *testing.T) {
	entry := approvedLeave("to-2")
	entry.PersonEmail = ""
	h := &fakeHRIS{
		timeoffs:  map[string]*hris.Timeoff{"to-2": entry},
		summaries: map[string]hris.PersonSummary{"p-5": {Email: "batch@x.io"}},
	}
	p := &fakePlanner{people: map[string]*planner.Person{"batch@x.io": {ID: 7}}}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncTimeoff(context.Background(), "to-2")
	if res.Status != StatusSynced || res.Email != "batch@x.io" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSyncTimeoffHolidayCategory(t *testing.T) {
	entry := approvedLeave("to-3")
	entry.Reason = "Public holiday — Feriado"
	h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-3": entry}}
	p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42}}}
	s, st := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncTimeoff(context.Background(), "to-3")
	if res.Status != StatusSynced {
		t.Fatalf("result = %+v", res)
	}
	if p.created[0].Date != "2025-04-10" || p.created[0].StartDate != "" {
		t.Fatalf("holiday payload should carry a single date: %+v", p.created[0])
	}
	m, _ := st.LoadMapping(context.Background())
	if e, _ := m.Get("to-3"); e.Category != "holidays" {
		t.Fatalf("category = %q", e.Category)
	}
}

func TestDeleteTimeoffReplayIsSkipped(t *testing.T) {
	h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-7": approvedLeave("to-7")}}
	p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42}}}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	if res := s.SyncTimeoff(context.Background(), "to-7"); res.Status != StatusSynced {
		t.Fatalf("seed sync = %+v", res)
	}

	first := s.DeleteTimeoff(context.Background(), "to-7")
	second := s.DeleteTimeoff(context.Background(), "to-7")

	if first.Status != StatusDeleted {
		t.Fatalf("first = %+v", first)
	}
	if second.Status != StatusSkipped || second.Reason != "no mapping found" {
		t.Fatalf("second = %+v", second)
	}
	if len(p.deleted) != 1 {
		t.Fatalf("deleted calls = %d, want 1", len(p.deleted))
	}
}

func TestClassifyCategory(t *testing.T) {
	cases := map[string]planner.Category{
		"Public Holiday":   planner.CategoryHolidays,
		"feriado nacional": planner.CategoryHolidays,
		"Rostered day off": planner.CategoryRostered,
		"floating day":     planner.CategoryRostered,
		"day in lieu":      planner.CategoryRostered,
		"vacation":         planner.CategoryLeave,
		"sick":             planner.CategoryLeave,
		"":                 planner.CategoryLeave,
	}
	for text, want := range cases {
		if got := ClassifyCategory(text); got != want {
			t.Fatalf("ClassifyCategory(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestComputeCTC(t *testing.T) {
	cases := []struct {
		base   float64
		scheme string
		want   float64
	}{
		{60000, "Ontop", 60720.00},
		{60000, "ontop", 60720.00},
		{10000, "Voiz", 10240.00},
		{100000, "Nómina", 140000.00},
		{100000, "Mixto Interno", 140000.00},
		{50000, "unheard of", 50000.00},
	}
	for _, c := range cases {
		if got := ComputeCTC(c.base, c.scheme, nil); got != c.want {
			t.Fatalf("ComputeCTC(%v, %q) = %v, want %v", c.base, c.scheme, got, c.want)
		}
	}

	// Mixto Externo: base + 0.40*MIN + 0.02*(base-MIN), MIN=(8364*12*2)/18.30
	min2y := (8364.0 * 12 * 2) / 18.30
	want := 80000 + 0.40*min2y + 0.02*(80000-min2y)
	got := ComputeCTC(80000, "Mixto Externo", nil)
	if diff := got - want; diff > 0.011 || diff < -0.011 {
		t.Fatalf("Mixto Externo = %v, want ~%v", got, want)
	}
}

func TestRecalculateCTCPatchesJobInUSD(t *testing.T) {
	h := &fakeHRIS{
		people:  map[string]*hris.Person{"p-1": {ID: "p-1", JobID: "j-1"}},
		jobComp: map[string]*hris.JobCompensation{"j-1": {Base: 60000, Scheme: "Ontop", Currency: "MXN"}},
	}
	s, st := newTestService(t, h, &fakePlanner{}, &fakeATS{}, Options{})

	res := s.RecalculateCTC(context.Background(), "p-1")
	if res.Status != StatusUpdated || res.Value != 60720.00 {
		t.Fatalf("result = %+v", res)
	}
	if len(h.jobPatches) != 1 {
		t.Fatalf("patches = %+v", h.jobPatches)
	}
	patch := h.jobPatches[0]
	if patch["ctc"] != 60720.00 || patch["currency"] != "USD" {
		t.Fatalf("patch = %+v", patch)
	}

	m, err := st.LoadMetrics(context.Background())
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if m.Counters["ctc_calc_updated"] != 1 {
		t.Fatalf("counters = %+v", m.Counters)
	}
}

func TestRecalculateCTCSkipsWithoutJob(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{"p-1": {ID: "p-1"}}}
	s, _ := newTestService(t, h, &fakePlanner{}, &fakeATS{}, Options{})

	res := s.RecalculateCTC(context.Background(), "p-1")
	if res.Status != StatusSkipped || res.Reason != "missing job id" {
		t.Fatalf("result = %+v", res)
	}
	if len(h.jobPatches) != 0 {
		t.Fatalf("skipped event must not write")
	}
}

func TestSyncCompensationPatchesDifferingContracts(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{"p-1": {
		ID: "p-1", JobID: "j-1", WorkEmail: "ana@x.io", CostToCompany: 185600,
	}}}
	p := &fakePlanner{
		people: map[string]*planner.Person{"ana@x.io": {ID: 9}},
		contracts: map[int64][]planner.Contract{9: {
			{ID: 1, PersonID: 9, CostPerHour: 100.00},          // already current
			{ID: 2, PersonID: 9, CostPerHour: 87.50},           // stale
			{ID: 3, PersonID: 9, EndDate: "2000-01-01"},        // expired
			{ID: 4, PersonID: 9, CostPerHour: 99.995},          // within a cent
		}},
	}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncCompensation(context.Background(), "p-1")
	if res.Status != StatusSynced || res.Value != 100.00 {
		t.Fatalf("result = %+v", res)
	}
	if len(p.patched) != 1 || p.patched[2] != 100.00 {
		t.Fatalf("patched = %+v", p.patched)
	}
}

func TestSyncCompensationSkipsWithoutCost(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{"p-1": {ID: "p-1", JobID: "j-1", WorkEmail: "a@x.io"}}}
	s, _ := newTestService(t, h, &fakePlanner{}, &fakeATS{}, Options{})
	if res := s.SyncCompensation(context.Background(), "p-1"); res.Status != StatusSkipped {
		t.Fatalf("result = %+v", res)
	}
}

func hiredApplication(t *testing.T) *ats.Application {
	t.Helper()
	var app ats.Application
	app.Resource = ats.Resource{
		ID:   "app-1",
		Type: "job-applications",
		Attributes: map[string]any{
			"status":   "hired",
			"hired-at": "2025-02-20T12:00:00Z",
		},
	}
	app.Included = []ats.Resource{
		{ID: "c1", Type: "candidates", Attributes: map[string]any{
			"first-name": "María", "last-name": "Ñuño", "email": "maria@ex.com",
		}},
		{ID: "j1", Type: "jobs", Attributes: map[string]any{"title": "Engineer"}},
	}
	return &app
}

func TestSyncPersonUpsertsProfile(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{
		"p-9": {
			ID: "p-9", NameFirst: "Ana", NameLast: "Sousa",
			WorkEmail: "ana@x.io", EmploymentType: "contractor",
			StartDateOrg: "2025-05-01T00:00:00Z",
		},
	}}
	p := &fakePlanner{}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncPerson(context.Background(), "p-9")
	if res.Status != StatusSynced || res.PlannerID == 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(p.upserted) != 1 {
		t.Fatalf("upserted = %+v", p.upserted)
	}
	in := p.upserted[0]
	if in.FirstName != "Ana" || in.LastName != "Sousa" || in.Email != "ana@x.io" {
		t.Fatalf("payload = %+v", in)
	}
	if in.EmploymentType != "contractor" || in.StartsAt != "2025-05-01" {
		t.Fatalf("payload = %+v", in)
	}
}

func TestSyncPersonDefaultsEmploymentAndStart(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{
		"p-10": {ID: "p-10", NameFirst: "Bo", PersonalEmail: "bo@ex.com"},
	}}
	p := &fakePlanner{}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})
	s.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }

	res := s.SyncPerson(context.Background(), "p-10")
	if res.Status != StatusSynced {
		t.Fatalf("result = %+v", res)
	}
	in := p.upserted[0]
	if in.EmploymentType != "employee" || in.StartsAt != "2025-04-01" {
		t.Fatalf("payload = %+v", in)
	}
}

func TestSyncPersonSkipsWithoutEmail(t *testing.T) {
	h := &fakeHRIS{people: map[string]*hris.Person{"p-11": {ID: "p-11", NameFirst: "No"}}}
	p := &fakePlanner{}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	res := s.SyncPerson(context.Background(), "p-11")
	if res.Status != StatusSkipped || res.Reason != "missing email" {
		t.Fatalf("result = %+v", res)
	}
	if len(p.upserted) != 0 {
		t.Fatalf("skip must not upsert: %+v", p.upserted)
	}
}

func TestSyncOnboardingWindowFiltersAndFallsBackToJob(t *testing.T) {
	h := &fakeHRIS{
		people: map[string]*hris.Person{
			"p-1": {ID: "p-1", WorkEmail: "in@x.io", StartDateOrg: "2025-04-10", JobID: "j-1"},
			"p-2": {ID: "p-2", WorkEmail: "late@x.io", StartDateOrg: "2025-09-01"},
			"p-3": {ID: "p-3", WorkEmail: "past@x.io", StartDateOrg: "2025-01-01"},
		},
		jobEmployment: map[string]string{"j-1": "contractor"},
	}
	p := &fakePlanner{}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{OnboardLookaheadDays: 30})
	s.now = func() time.Time { return time.Date(2025, 4, 1, 3, 0, 0, 0, time.UTC) }

	sum, err := s.SyncOnboardingWindow(context.Background())
	if err != nil {
		t.Fatalf("SyncOnboardingWindow: %v", err)
	}
	if sum.Processed != 1 || sum.Synced != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(p.upserted) != 1 || p.upserted[0].Email != "in@x.io" {
		t.Fatalf("upserted = %+v", p.upserted)
	}
	if p.upserted[0].EmploymentType != "contractor" {
		t.Fatalf("employment fallback = %+v", p.upserted[0])
	}
}

func TestProcessHireImportsWithGeneratedEmail(t *testing.T) {
	h := &fakeHRIS{uniqueEmail: "maria.nuno@corp.io"}
	a := &fakeATS{app: hiredApplication(t), startDate: "2025-03-01"}
	s, _ := newTestService(t, h, &fakePlanner{}, a, Options{
		CorpEmailDomain:     "corp.io",
		AutoAssignWorkEmail: true,
	})

	res, err := s.ProcessHire(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ProcessHire: %v", err)
	}
	if !res.Processed || res.WorkEmail != "maria.nuno@corp.io" {
		t.Fatalf("result = %+v", res)
	}
	if len(h.imports) != 1 || len(h.imports[0]) != 1 {
		t.Fatalf("imports = %+v", h.imports)
	}
	row := h.imports[0][0]
	if row.Values["start date"] != "2025-03-01" {
		t.Fatalf("start date = %q", row.Values["start date"])
	}
	if row.Values["contact workemail"] != "maria.nuno@corp.io" {
		t.Fatalf("work email = %q", row.Values["contact workemail"])
	}
	if row.Values["contact personalemail"] != "maria@ex.com" {
		t.Fatalf("personal email = %q", row.Values["contact personalemail"])
	}
}

func TestProcessHireFallsBackToHiredAtDate(t *testing.T) {
	a := &fakeATS{app: hiredApplication(t)}
	h := &fakeHRIS{}
	s, _ := newTestService(t, h, &fakePlanner{}, a, Options{})

	res, err := s.ProcessHire(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ProcessHire: %v", err)
	}
	if !res.Processed {
		t.Fatalf("result = %+v", res)
	}
	if got := h.imports[0][0].Values["start date"]; got != "2025-02-20" {
		t.Fatalf("start date = %q", got)
	}
}

func TestProcessHireSkipsUnhired(t *testing.T) {
	var app ats.Application
	app.Resource = ats.Resource{ID: "app-2", Type: "job-applications",
		Attributes: map[string]any{"status": "in review"}}
	h := &fakeHRIS{}
	s, _ := newTestService(t, h, &fakePlanner{}, &fakeATS{app: &app}, Options{})

	res, err := s.ProcessHire(context.Background(), "app-2")
	if err != nil {
		t.Fatalf("ProcessHire: %v", err)
	}
	if res.Processed || res.Reason != "application not hired" {
		t.Fatalf("result = %+v", res)
	}
	if len(h.imports) != 0 {
		t.Fatalf("unhired application must not import")
	}
}

func TestProcessHireUpsertsPlannerWhenEnabled(t *testing.T) {
	h := &fakeHRIS{uniqueEmail: "maria.nuno@corp.io"}
	p := &fakePlanner{}
	a := &fakeATS{app: hiredApplication(t), startDate: "2025-03-01"}
	s, _ := newTestService(t, h, p, a, Options{
		CorpEmailDomain:     "corp.io",
		AutoAssignWorkEmail: true,
		CreatePlannerOnHire: true,
	})

	res, err := s.ProcessHire(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ProcessHire: %v", err)
	}
	if len(p.upserted) != 1 || p.upserted[0].Email != "maria.nuno@corp.io" {
		t.Fatalf("upserted = %+v", p.upserted)
	}
	if in := p.upserted[0]; in.EmploymentType != "employee" || in.StartsAt != "2025-03-01" {
		t.Fatalf("upsert payload = %+v", in)
	}
	if res.PlannerID == 0 {
		t.Fatalf("planner id missing: %+v", res)
	}
}

func TestHandleRoutesKinds(t *testing.T) {
	h := &fakeHRIS{timeoffs: map[string]*hris.Timeoff{"to-7": approvedLeave("to-7")}}
	p := &fakePlanner{people: map[string]*planner.Person{"ana@x.io": {ID: 42}}}
	s, _ := newTestService(t, h, p, &fakeATS{}, Options{})

	out, err := s.Handle(context.Background(), KindTimeoff, "to-7")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res, ok := out.(Result); !ok || res.Status != StatusSynced {
		t.Fatalf("out = %+v", out)
	}

	out, err = s.Handle(context.Background(), "mystery", "x")
	if err != nil {
		t.Fatalf("Handle unknown: %v", err)
	}
	if res, ok := out.(Result); !ok || res.Status != StatusSkipped {
		t.Fatalf("unknown kind out = %+v", out)
	}
}
