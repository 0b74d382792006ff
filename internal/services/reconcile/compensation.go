package reconcile

import (
	"context"
	"math"
	"strings"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
)

// CompFields extends the compensation projection with the job linkage
const CompFields = hris.CompensationFields + ",jobId"

// CostPerHour converts annualized cost-to-company into an hourly rate
func CostPerHour(costToCompany, annualHours float64) float64 {
	return math.Round(costToCompany/annualHours*100) / 100
}

// SyncCompensation pushes one person's hourly cost onto their active planner
// contracts. Contracts already within a cent are left alone
func (s *Service) SyncCompensation(ctx context.Context, personID string) Result {
	p, err := s.hris.GetPersonProjected(ctx, personID, CompFields)
	if err != nil {
		s.state.RecordError(ctx, KindCompensation, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: personID}
	}
	if p == nil {
		return skipped(personID, "person not found")
	}
	return s.syncCompensationRecord(ctx, p)
}

func (s *Service) syncCompensationRecord(ctx context.Context, p *hris.Person) Result {
	email := p.PrimaryEmail()
	if email == "" {
		return skipped(p.ID, "missing email")
	}
	cost := float64(p.CostToCompany)
	if cost <= 0 {
		return Result{Status: StatusSkipped, Reason: "missing cost to company", EntityID: p.ID, Email: email}
	}
	if strings.TrimSpace(p.JobID) == "" {
		return Result{Status: StatusSkipped, Reason: "missing job id", EntityID: p.ID, Email: email}
	}

	person, err := s.planner.FindPersonByEmail(ctx, email)
	if err != nil {
		s.state.RecordError(ctx, KindCompensation, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: p.ID, Email: email}
	}
	if person == nil {
		return Result{Status: StatusSkipped, Reason: "person not found", EntityID: p.ID, Email: email}
	}

	contracts, err := s.planner.ListPersonContracts(ctx, person.ID)
	if err != nil {
		s.state.RecordError(ctx, KindCompensation, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: p.ID, Email: email}
	}
	active := planner.ActiveContracts(contracts, s.today())
	if len(active) == 0 {
		return Result{Status: StatusSkipped, Reason: "no active contracts", EntityID: p.ID, Email: email}
	}

	rate := CostPerHour(cost, s.opts.AnnualHours)
	patched, failed := 0, 0
	for _, ct := range active {
		if math.Abs(ct.CostPerHour-rate) < 0.01 {
			continue
		}
		if err := s.planner.UpdateContractCost(ctx, ct.ID, rate); err != nil {
			failed++
			s.state.RecordError(ctx, KindCompensation, err)
			s.log.Warn().Err(err).Int64("contract_id", ct.ID).Msg("contract cost patch failed")
			continue
		}
		patched++
	}

	switch {
	case patched > 0:
		s.state.RecordSync(ctx, KindCompensation, int64(patched))
		return Result{Status: StatusSynced, EntityID: p.ID, Email: email, Value: rate}
	case failed > 0:
		return Result{Status: StatusError, Reason: "all contract patches failed", EntityID: p.ID, Email: email}
	default:
		return Result{Status: StatusSkipped, Reason: "contracts already current", EntityID: p.ID, Email: email, Value: rate}
	}
}

// SyncCompensationBatch applies the compensation sync to every active person
func (s *Service) SyncCompensationBatch(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	err := s.hris.ForEachPerson(ctx, CompFields, func(p hris.Person) error {
		if strings.TrimSpace(p.ID) == "" {
			return nil
		}
		sum.add(s.syncCompensationRecord(ctx, &p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.state.RecordSync(ctx, KindCompBatch, 1)
	return sum, nil
}
