package reconcile

import (
	"context"
	"strings"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/adapters/planner"
	perr "hrhub/internal/platform/errors"
	"hrhub/internal/services/syncstate/domain"
)

// skipStatuses never produce a downstream write
var skipStatuses = map[string]bool{
	"denied":    true,
	"rejected":  true,
	"cancelled": true,
	"draft":     true,
	"pending":   true,
	"withdrawn": true,
}

// ClassifyCategory maps a reason/type string onto the planner endpoint family.
// Holiday markers win over roster markers; everything else is leave
func ClassifyCategory(text string) planner.Category {
	t := strings.ToLower(text)
	for _, marker := range []string{"holiday", "feriado", "public"} {
		if strings.Contains(t, marker) {
			return planner.CategoryHolidays
		}
	}
	for _, marker := range []string{"roster", "rostered", "floating", "lieu"} {
		if strings.Contains(t, marker) {
			return planner.CategoryRostered
		}
	}
	return planner.CategoryLeave
}

// timeoffNote tags the planner entry with its upstream origin
func timeoffNote(hrisID, reason string) string {
	return "ChartHop:" + hrisID + " • " + reason
}

// SyncTimeoff reconciles one HRIS time-off event into the planner.
// Replays are idempotent: a mapped event updates instead of creating
func (s *Service) SyncTimeoff(ctx context.Context, timeoffID string) Result {
	entry, err := s.hris.GetTimeoff(ctx, timeoffID)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: timeoffID}
	}
	if entry == nil {
		return skipped(timeoffID, "timeoff not found")
	}
	return s.syncTimeoffEntry(ctx, entry)
}

func (s *Service) syncTimeoffEntry(ctx context.Context, entry *hris.Timeoff) Result {
	id := entry.ID
	if status := strings.ToLower(strings.TrimSpace(entry.Status)); skipStatuses[status] {
		return skipped(id, "status "+status)
	}

	email, err := s.resolveOwnerEmail(ctx, entry)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id}
	}
	if email == "" {
		return skipped(id, "missing email")
	}

	person, err := s.planner.FindPersonByEmail(ctx, email)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}
	if person == nil {
		return Result{Status: StatusSkipped, Reason: "person not found", EntityID: id, Email: email}
	}

	start := entry.Start()
	if start == "" {
		return Result{Status: StatusSkipped, Reason: "missing start date", EntityID: id, Email: email}
	}
	end := entry.End()
	if end == "" {
		end = start
	}

	reason := entry.ReasonOrType()
	cat := ClassifyCategory(reason)
	payload := planner.Timeoff{
		PersonID:    person.ID,
		Note:        timeoffNote(id, reason),
		ExternalRef: id,
	}
	if cat == planner.CategoryLeave {
		payload.StartDate = start
		payload.EndDate = end
	} else {
		payload.Date = start
	}

	mapping, err := s.state.LoadMapping(ctx)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}

	if existing, ok := mapping.Get(id); ok {
		return s.updateTimeoff(ctx, mapping, existing, id, email, payload)
	}
	return s.createTimeoff(ctx, mapping, cat, id, email, start, end, payload)
}

func (s *Service) createTimeoff(
	ctx context.Context,
	mapping *domain.TimeoffMapping,
	cat planner.Category,
	id, email, start, end string,
	payload planner.Timeoff,
) Result {
	// the planner merges overlapping entries on its own; log, don't block
	if overlap, err := s.planner.FindOverlap(ctx, cat, payload.PersonID, start, end); err == nil && overlap != nil {
		s.log.Info().Str("timeoff_id", id).Int64("overlapping_id", overlap.ID).
			Str("category", string(cat)).Msg("existing planner entry overlaps window")
	}

	created, err := s.planner.CreateTimeoff(ctx, cat, payload)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}

	// mapping is written only after the downstream create is confirmed
	mapping.Put(id, domain.MappingEntry{
		PlannerID:   created.ID,
		Category:    string(cat),
		PersonEmail: email,
		CreatedAt:   s.now().UTC(),
	})
	if err := s.state.SaveMapping(ctx, mapping); err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}
	s.state.RecordSync(ctx, KindTimeoff, 1)
	return Result{Status: StatusSynced, EntityID: id, Email: email, PlannerID: created.ID}
}

func (s *Service) updateTimeoff(
	ctx context.Context,
	mapping *domain.TimeoffMapping,
	existing domain.MappingEntry,
	id, email string,
	payload planner.Timeoff,
) Result {
	cat := planner.Category(existing.Category)
	updated, err := s.planner.UpdateTimeoff(ctx, cat, existing.PlannerID, payload)
	if err != nil {
		if perr.IsUpstreamNotFound(err) || perr.IsCode(err, perr.ErrorCodeNotFound) {
			// planner entry vanished out-of-band; recreate and remap
			s.log.Warn().Str("timeoff_id", id).Int64("planner_id", existing.PlannerID).
				Msg("mapped planner entry gone, recreating")
			mapping.Delete(id)
			start, end := payload.StartDate, payload.EndDate
			if payload.Date != "" {
				start, end = payload.Date, payload.Date
			}
			return s.createTimeoff(ctx, mapping, cat, id, email, start, end, payload)
		}
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}

	existing.PersonEmail = email
	mapping.Put(id, existing)
	if err := s.state.SaveMapping(ctx, mapping); err != nil {
		s.state.RecordError(ctx, KindTimeoff, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: id, Email: email}
	}
	s.state.RecordSync(ctx, KindTimeoff, 1)
	return Result{Status: StatusUpdated, EntityID: id, Email: email, PlannerID: updated.ID}
}

// DeleteTimeoff removes the planner entry mapped to an HRIS event. Events
// without a mapping are skipped, which makes delete replays harmless
func (s *Service) DeleteTimeoff(ctx context.Context, timeoffID string) Result {
	mapping, err := s.state.LoadMapping(ctx)
	if err != nil {
		s.state.RecordError(ctx, KindTimeoffDelete, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: timeoffID}
	}
	entry, ok := mapping.Get(timeoffID)
	if !ok {
		return skipped(timeoffID, "no mapping found")
	}

	if err := s.planner.DeleteTimeoff(ctx, planner.Category(entry.Category), entry.PlannerID); err != nil {
		s.state.RecordError(ctx, KindTimeoffDelete, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: timeoffID}
	}

	mapping.Delete(timeoffID)
	if err := s.state.SaveMapping(ctx, mapping); err != nil {
		s.state.RecordError(ctx, KindTimeoffDelete, err)
		return Result{Status: StatusError, Reason: err.Error(), EntityID: timeoffID}
	}
	s.state.RecordSync(ctx, KindTimeoffDelete, 1)
	return Result{Status: StatusDeleted, EntityID: timeoffID, PlannerID: entry.PlannerID}
}

// SyncTimeoffWindow reconciles every entry in the lookback/lookahead window.
// Used by the synchronous cron endpoint
func (s *Service) SyncTimeoffWindow(ctx context.Context) (*Summary, error) {
	ref := s.now().UTC()
	start := ref.AddDate(0, 0, -s.opts.TimeoffLookbackDays).Format("2006-01-02")
	end := ref.AddDate(0, 0, s.opts.TimeoffLookaheadDays).Format("2006-01-02")

	entries, err := s.hris.FetchTimeoffWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	sum := &Summary{}
	for i := range entries {
		sum.add(s.syncTimeoffEntry(ctx, &entries[i]))
	}
	return sum, nil
}

// resolveOwnerEmail walks the fallback chain: embedded emails, the batched
// v1 lookup, then the projected v2 person get
func (s *Service) resolveOwnerEmail(ctx context.Context, entry *hris.Timeoff) (string, error) {
	if e := entry.OwnerEmail(); e != "" {
		return e, nil
	}
	personID := strings.TrimSpace(entry.PersonID)
	if personID == "" {
		return "", nil
	}
	if people, err := s.hris.FetchPeopleByIDs(ctx, []string{personID}); err == nil {
		if summary, ok := people[personID]; ok && summary.Email != "" {
			return summary.Email, nil
		}
	}
	p, err := s.hris.GetPersonProjected(ctx, personID, hris.EmailFields)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return p.PrimaryEmail(), nil
}
