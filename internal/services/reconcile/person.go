package reconcile

import (
	"context"
	"strings"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
)

// SyncPerson upserts one HRIS person into the planner. Missing email skips
func (s *Service) SyncPerson(ctx context.Context, personID string) Result {
	p, err := s.hris.GetPersonProjected(ctx, personID, hris.OnboardFields)
	if err != nil {
		s.state.RecordError(ctx, KindPerson, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: personID}
	}
	if p == nil {
		return skipped(personID, "person not found")
	}
	return s.syncPersonRecord(ctx, p)
}

func (s *Service) syncPersonRecord(ctx context.Context, p *hris.Person) Result {
	email := p.PrimaryEmail()
	if email == "" {
		return skipped(p.ID, "missing email")
	}

	employment := strings.TrimSpace(p.EmploymentType)
	if employment == "" {
		employment = "employee"
	}
	starts := hris.NormDate(p.StartDateOrg)
	if starts == "" {
		starts = s.now().UTC().Format("2006-01-02")
	}

	first, last := preferredNamePair(p)
	upserted, err := s.planner.UpsertPerson(ctx, planner.PersonInput{
		FirstName:      first,
		LastName:       last,
		Email:          email,
		EmploymentType: employment,
		StartsAt:       starts,
	})
	if err != nil {
		s.state.RecordError(ctx, KindPerson, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: p.ID, Email: email}
	}
	s.state.RecordSync(ctx, KindPerson, 1)
	return Result{Status: StatusSynced, EntityID: p.ID, Email: email, PlannerID: upserted.ID}
}

// SyncOnboardingWindow upserts everyone whose start date falls between today
// and the lookahead horizon. Employment type falls back from the person to
// the containing job, logged when the job path resolves
func (s *Service) SyncOnboardingWindow(ctx context.Context) (*Summary, error) {
	ref := s.now().UTC()
	from := ref.Format("2006-01-02")
	to := ref.AddDate(0, 0, s.opts.OnboardLookaheadDays).Format("2006-01-02")

	sum := &Summary{}
	jobEmployment := map[string]string{}
	err := s.hris.ForEachPerson(ctx, hris.OnboardFields, func(p hris.Person) error {
		start := hris.NormDate(p.StartDateOrg)
		if start == "" || start < from || start > to {
			return nil
		}
		if strings.TrimSpace(p.EmploymentType) == "" && p.JobID != "" {
			emp, ok := jobEmployment[p.JobID]
			if !ok {
				var err error
				emp, err = s.hris.GetJobEmployment(ctx, p.JobID)
				if err != nil {
					s.log.Warn().Err(err).Str("job_id", p.JobID).Msg("job employment lookup failed")
				}
				jobEmployment[p.JobID] = emp
			}
			if emp != "" {
				s.log.Debug().Str("person_id", p.ID).Str("job_id", p.JobID).
					Msg("employment type resolved from job")
				p.EmploymentType = emp
			}
		}
		sum.add(s.syncPersonRecord(ctx, &p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func preferredNamePair(p *hris.Person) (string, string) {
	first := strings.TrimSpace(p.NamePref)
	if first == "" {
		first = strings.TrimSpace(p.NameFirst)
	}
	last := strings.TrimSpace(p.NamePrefLast)
	if last == "" {
		last = strings.TrimSpace(p.NameLast)
	}
	if first == "" && last == "" {
		if full := strings.TrimSpace(p.NameFull); full != "" {
			parts := strings.SplitN(full, " ", 2)
			first = parts[0]
			if len(parts) == 2 {
				last = parts[1]
			}
		}
	}
	return first, last
}
