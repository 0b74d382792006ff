package reconcile

import (
	"context"
	"strings"

	"hrhub/internal/adapters/ats"
	"hrhub/internal/adapters/hris"
)

// JobSyncResult reports one mirrored job event
type JobSyncResult struct {
	Processed bool   `json:"processed"`
	Reason    string `json:"reason,omitempty"`
	ATSJobID  string `json:"ats_job_id,omitempty"`
}

// jobTitle digs the title out of the job record or its custom fields
func jobTitle(j *hris.Job) string {
	if t := strings.TrimSpace(j.Title); t != "" {
		return t
	}
	if t := j.FieldString("title"); t != "" {
		return t
	}
	if t := j.FieldString("name"); t != "" {
		return t
	}
	return "Untitled"
}

// jobOpen interprets the open flag, which arrives as a string on the record
// or inside the custom fields. Unknown values come back nil
func jobOpen(j *hris.Job) *bool {
	raw := strings.TrimSpace(j.Open)
	if raw == "" {
		raw = j.FieldString("open")
	}
	switch strings.ToLower(raw) {
	case "true", "open", "yes", "1":
		v := true
		return &v
	case "false", "closed", "no", "0":
		v := false
		return &v
	default:
		return nil
	}
}

// SyncJobCreate mirrors a new HRIS job into the ATS and cross-links the two
// records through custom fields on both sides. The links are best effort:
// a created ATS job without a backlink is still a success
func (s *Service) SyncJobCreate(ctx context.Context, jobID string) (*JobSyncResult, error) {
	job, err := s.hris.FindJob(ctx, jobID)
	if err != nil {
		s.state.RecordError(ctx, "job_sync", err)
		return nil, err
	}
	if job == nil {
		return &JobSyncResult{Processed: false, Reason: "job not found"}, nil
	}

	status := ats.JobStatusFromOpen(jobOpen(job))
	if status == "" {
		status = ats.JobStatusUnlisted
	}
	atsID, err := s.ats.CreateJob(ctx, jobTitle(job), "", status)
	if err != nil {
		s.state.RecordError(ctx, "job_sync", err)
		return nil, err
	}

	if s.opts.ATSJobLinkField != "" {
		if err := s.linkATSJob(ctx, atsID, jobID); err != nil {
			s.log.Warn().Err(err).Str("ats_job_id", atsID).Msg("ats job backlink failed")
		}
	}
	if s.opts.HRISJobLinkField != "" {
		err := s.hris.UpsertJobFields(ctx, jobID, map[string]any{s.opts.HRISJobLinkField: atsID})
		if err != nil {
			s.log.Warn().Err(err).Str("job_id", jobID).Msg("hris job backlink failed")
		}
	}

	s.state.RecordSync(ctx, "job_sync", 1)
	s.log.Info().Str("job_id", jobID).Str("ats_job_id", atsID).Msg("job mirrored to ats")
	return &JobSyncResult{Processed: true, ATSJobID: atsID}, nil
}

func (s *Service) linkATSJob(ctx context.Context, atsJobID, hrisJobID string) error {
	fieldID, err := s.ats.ResolveCustomFieldID(ctx, s.opts.ATSJobLinkField)
	if err != nil {
		return err
	}
	if fieldID == "" {
		s.log.Warn().Str("api_name", s.opts.ATSJobLinkField).Msg("ats link custom field not found")
		return nil
	}
	return s.ats.UpsertJobCustomField(ctx, atsJobID, fieldID, hrisJobID)
}

// SyncJobUpdate pushes title/status changes onto the linked ATS job. Jobs
// without a stored ATS id are skipped
func (s *Service) SyncJobUpdate(ctx context.Context, jobID string) (*JobSyncResult, error) {
	job, err := s.hris.FindJob(ctx, jobID)
	if err != nil {
		s.state.RecordError(ctx, "job_sync", err)
		return nil, err
	}
	if job == nil {
		return &JobSyncResult{Processed: false, Reason: "job not found"}, nil
	}

	atsID := ""
	if s.opts.HRISJobLinkField != "" {
		atsID = job.FieldString(s.opts.HRISJobLinkField)
	}
	if atsID == "" {
		return &JobSyncResult{Processed: false, Reason: "no ats mapping"}, nil
	}

	status := ats.JobStatusFromOpen(jobOpen(job))
	if err := s.ats.UpdateJob(ctx, atsID, jobTitle(job), status); err != nil {
		s.state.RecordError(ctx, "job_sync", err)
		return nil, err
	}
	s.state.RecordSync(ctx, "job_sync", 1)
	return &JobSyncResult{Processed: true, ATSJobID: atsID}, nil
}
