package reconcile

import (
	"context"
)

// BatchKind reports whether a task kind operates on the whole population and
// therefore carries no entity id
func BatchKind(kind string) bool {
	return kind == KindCompBatch || kind == KindCTCBatch
}

// Handle routes a worker task to its handler. Unknown kinds are reported as
// skipped so poisoned payloads do not retry forever
func (s *Service) Handle(ctx context.Context, kind, entityID string) (any, error) {
	switch kind {
	case KindTimeoff:
		return s.SyncTimeoff(ctx, entityID), nil
	case KindTimeoffDelete:
		return s.DeleteTimeoff(ctx, entityID), nil
	case KindPerson:
		return s.SyncPerson(ctx, entityID), nil
	case KindCompensation:
		return s.SyncCompensation(ctx, entityID), nil
	case KindCompBatch:
		return s.SyncCompensationBatch(ctx)
	case KindCTC:
		return s.RecalculateCTC(ctx, entityID), nil
	case KindCTCBatch:
		return s.RecalculateCTCBatch(ctx)
	default:
		s.log.Warn().Str("kind", kind).Str("entity_id", entityID).Msg("unknown task kind ignored")
		return Result{Status: StatusSkipped, Reason: "unknown kind " + kind, EntityID: entityID}, nil
	}
}
