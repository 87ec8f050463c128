package reports

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/cache"
	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/logging"
)

// Source supplies the current Book and a version that changes on every write.
type Source interface {
	Book(ctx context.Context) (*ledger.Book, error)
	Version(ctx context.Context) (int64, error)
}

// Service caches one Reporter per source version, so repeated report reads
// between writes derive the journal once.
type Service struct {
	src   Source
	roles ledger.AccountRoles
	cache cache.Cache[int64, *Reporter]
	ttl   time.Duration
}

func NewService(src Source, roles ledger.AccountRoles, ttl time.Duration) *Service {
	return &Service{
		src:   src,
		roles: roles,
		cache: cache.NewTTL[int64, *Reporter](),
		ttl:   ttl,
	}
}

// WithoutCache makes every Reporter call derive the journal afresh.
func (s *Service) WithoutCache() *Service {
	s.cache = cache.Noop[int64, *Reporter]{}
	return s
}

func (s *Service) Roles() ledger.AccountRoles { return s.roles }

// Reporter returns a Reporter for the current source state.
func (s *Service) Reporter(ctx context.Context) (*Reporter, error) {
	version, err := s.src.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("book version: %w", err)
	}
	return cache.GetOrLoad(s.cache, version, s.ttl, func() (*Reporter, error) {
		book, err := s.src.Book(ctx)
		if err != nil {
			return nil, fmt.Errorf("load book: %w", err)
		}
		start := time.Now()
		rep := New(book, s.roles)
		if pruned := s.cache.Prune(func(v int64) bool { return v < version }); pruned > 0 {
			logging.FromContext(ctx).Debug("pruned stale reports", zap.Int("count", pruned))
		}

		l := logging.FromContext(ctx).With(zap.Int64("version", version))
		l.Debug("derived journal",
			zap.Int("entries", len(rep.journal.Entries)),
			zap.Duration("took", time.Since(start)))
		for _, g := range rep.journal.Gaps {
			l.Warn("derivation gap",
				zap.String("kind", string(g.Kind)),
				zap.String("event_id", g.EventID),
				zap.String("reason", g.Reason))
		}
		return rep, nil
	})
}

// Invalidate drops every cached Reporter.
func (s *Service) Invalidate() {
	s.cache.Prune(func(int64) bool { return true })
}
