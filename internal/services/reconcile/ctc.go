package reconcile

import (
	"context"
	"math"
	"strings"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/platform/logger"
)

// min2YUSD is the two-year minimum-wage reference used by the Mixto Externo
// scheme: monthly minimum × 12 months × 2 years, converted at the fixed rate
const min2YUSD = (8364.0 * 12 * 2) / 18.30

// ComputeCTC applies the hiring-scheme formula to a base compensation in USD.
// Unknown schemes pass the base through and log a warning
func ComputeCTC(base float64, scheme string, log *logger.Logger) float64 {
	var ctc float64
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "nómina", "nomina", "mixto interno":
		ctc = base * 1.40
	case "mixto externo":
		ctc = base + 0.40*min2YUSD + 0.02*(base-min2YUSD)
	case "ontop":
		ctc = base + 720
	case "voiz":
		ctc = base + 240
	default:
		if log != nil {
			log.Warn().Str("scheme", scheme).Msg("unknown hiring scheme, ctc equals base")
		}
		ctc = base
	}
	return math.Round(ctc*100) / 100
}

// ctcFields projects just the job linkage for the CTC lookup
const ctcFields = "id,jobId"

// RecalculateCTC recomputes one person's cost-to-company and writes it back
// onto their HRIS job in USD
func (s *Service) RecalculateCTC(ctx context.Context, personID string) Result {
	p, err := s.hris.GetPersonProjected(ctx, personID, ctcFields)
	if err != nil {
		s.state.RecordError(ctx, "ctc_calc", err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: personID}
	}
	if p == nil {
		s.state.RecordSync(ctx, "ctc_calc_skipped", 1)
		return skipped(personID, "person not found")
	}
	jobID := strings.TrimSpace(p.JobID)
	if jobID == "" {
		s.state.RecordSync(ctx, "ctc_calc_skipped", 1)
		return skipped(personID, "missing job id")
	}

	comp, err := s.hris.GetJobCompensation(ctx, jobID, s.opts.SchemeField)
	if err != nil {
		s.state.RecordError(ctx, "ctc_calc", err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: personID, JobID: jobID}
	}
	if comp == nil || comp.Base <= 0 {
		s.state.RecordSync(ctx, "ctc_calc_skipped", 1)
		return Result{Status: StatusSkipped, Reason: "missing base comp", EntityID: personID, JobID: jobID}
	}

	ctc := ComputeCTC(comp.Base, comp.Scheme, &s.log)
	if ctc <= 0 {
		s.state.RecordSync(ctx, "ctc_calc_skipped", 1)
		return Result{Status: StatusSkipped, Reason: "calculation is zero", EntityID: personID, JobID: jobID}
	}

	// the CTC field is always written in USD regardless of the base currency
	err = s.hris.UpsertJobFields(ctx, jobID, map[string]any{"ctc": ctc, "currency": "USD"})
	if err != nil {
		s.state.RecordError(ctx, "ctc_calc", err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: personID, JobID: jobID}
	}

	s.state.RecordSync(ctx, "ctc_calc_updated", 1)
	return Result{Status: StatusUpdated, EntityID: personID, JobID: jobID, Value: ctc}
}

// RecalculateCTCBatch runs the CTC recompute for every active person
func (s *Service) RecalculateCTCBatch(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	err := s.hris.ForEachPerson(ctx, ctcFields, func(p hris.Person) error {
		if strings.TrimSpace(p.ID) == "" {
			return nil
		}
		sum.add(s.RecalculateCTC(ctx, p.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.state.RecordSync(ctx, "ctc_calc_batch", 1)
	return sum, nil
}
