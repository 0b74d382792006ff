package reconcile

import (
	"context"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
)

// HireResult reports one processed hire event
type HireResult struct {
	Processed bool   `json:"processed"`
	Reason    string `json:"reason,omitempty"`
	ImportID  string `json:"import_id,omitempty"`
	WorkEmail string `json:"work_email,omitempty"`
	PlannerID int64  `json:"planner_id,omitempty"`
}

// ProcessHire turns a hired ATS application into an HRIS person import.
// Applications that are not hired are reported, not failed
func (s *Service) ProcessHire(ctx context.Context, applicationID string) (*HireResult, error) {
	app, err := s.ats.GetApplication(ctx, applicationID)
	if err != nil {
		s.state.RecordError(ctx, "hire", err)
		return nil, err
	}
	if app == nil {
		return &HireResult{Processed: false, Reason: "application not found"}, nil
	}
	if !app.Hired() {
		return &HireResult{Processed: false, Reason: "application not hired"}, nil
	}

	candidate, _ := app.Candidate()
	job, _ := app.Job()
	first := candidate.Attr("first-name")
	last := candidate.Attr("last-name")
	personalEmail := candidate.Attr("email")
	title := job.Attr("title")

	startDate, err := s.ats.OfferStartDate(ctx, app)
	if err != nil {
		s.log.Warn().Err(err).Str("application_id", applicationID).Msg("offer start date lookup failed")
	}
	if startDate == "" {
		startDate = app.Attr("start-date")
	}
	if startDate == "" {
		if hired := app.HiredAt(); len(hired) >= 10 {
			startDate = hired[:10]
		}
	}

	var workEmail string
	if s.opts.AutoAssignWorkEmail && s.opts.CorpEmailDomain != "" {
		workEmail, err = s.hris.UniqueWorkEmail(ctx, first, last, s.opts.CorpEmailDomain)
		if err != nil {
			s.state.RecordError(ctx, "hire", err)
			return nil, err
		}
	}

	row := hris.NewImportRow(
		[2]string{"first name", first},
		[2]string{"last name", last},
		[2]string{"contact personalemail", personalEmail},
		[2]string{"title", title},
		[2]string{"start date", startDate},
	)
	if workEmail != "" {
		row.Set("contact workemail", workEmail)
	}

	imported, err := s.hris.ImportPeopleCSV(ctx, []hris.ImportRow{row})
	if err != nil {
		s.state.RecordError(ctx, "hire", err)
		return nil, err
	}

	result := &HireResult{Processed: true, ImportID: imported.ImportID, WorkEmail: workEmail}

	if s.opts.CreatePlannerOnHire {
		email := workEmail
		if email == "" {
			email = personalEmail
		}
		if email != "" {
			person, err := s.planner.UpsertPerson(ctx, planner.PersonInput{
				FirstName:      first,
				LastName:       last,
				Email:          email,
				EmploymentType: "employee",
				StartsAt:       startDate,
			})
			if err != nil {
				// the hire import already succeeded; planner upsert is best effort
				s.log.Warn().Err(err).Str("email", email).Msg("planner upsert after hire failed")
			} else {
				result.PlannerID = person.ID
			}
		}
	}

	s.state.RecordSync(ctx, "hire", 1)
	s.log.Info().Str("application_id", applicationID).
		Str("work_email", workEmail).Str("start_date", startDate).
		Msg("hire processed")
	return result, nil
}
