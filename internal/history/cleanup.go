package history

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
)

// CleanupExpired removes records detected strictly before now minus window and
// returns their ids. Removal runs in chunks through DeleteMany, releasing the
// lock and yielding between chunks so other callers are not starved.
// Pinned records are kept when the store was built WithKeepPinned(true).
// Unreadable storage yields an empty result and no error.
func (s *Store) CleanupExpired(ctx context.Context, window Retention) ([]string, error) {
	s.mu.Lock()
	records, err := s.load(ctx)
	now := s.now()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("failed to read history for cleanup", zap.Error(err))
		return []string{}, nil
	}

	cutoff := window.Cutoff(now)
	expired := make([]string, 0)
	for _, r := range records {
		if !r.DetectedAt.Before(cutoff) {
			continue
		}
		if s.keepPinned && r.IsPinned {
			continue
		}
		expired = append(expired, r.ID)
	}
	if len(expired) == 0 {
		return expired, nil
	}

	removed := make([]string, 0, len(expired))
	for start := 0; start < len(expired); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return removed, errors.NewCancelled(err)
		}
		end := min(start+s.chunkSize, len(expired))
		chunk := expired[start:end]
		if _, err := s.DeleteMany(ctx, chunk); err != nil {
			return removed, err
		}
		removed = append(removed, chunk...)
		runtime.Gosched()
	}

	s.logger.Info("expired records removed",
		zap.Int("count", len(removed)),
		zap.Time("cutoff", cutoff),
		zap.String("retention", window.String()),
	)
	return removed, nil
}
