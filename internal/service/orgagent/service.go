package orgagent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/okatech-org/consulat-scheduling/internal/repository"
)

const (
	defaultCacheTTL   = 5 * time.Minute
	defaultCacheSweep = 15 * time.Minute
)

// Service answers the org-agent authorization predicate. Membership rarely
// changes, so positive and negative answers are cached for a short TTL to
// keep the hot status-transition paths off the database.
type Service struct {
	repo  repository.OrgAgentRepository
	cache *cache.Cache
}

func NewService(repo repository.OrgAgentRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(defaultCacheTTL, defaultCacheSweep),
	}
}

func (s *Service) IsOrgAgent(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	key := cacheKey(userID, orgID)
	if cached, found := s.cache.Get(key); found {
		return cached.(bool), nil
	}

	isAgent, err := s.repo.IsOrgAgent(ctx, userID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve org agent: %w", err)
	}

	s.cache.Set(key, isAgent, cache.DefaultExpiration)
	return isAgent, nil
}

// Invalidate drops the cached answer for one membership, e.g. after the
// back-office deactivates an agent.
func (s *Service) Invalidate(userID, orgID uuid.UUID) {
	s.cache.Delete(cacheKey(userID, orgID))
}

func cacheKey(userID, orgID uuid.UUID) string {
	return userID.String() + "|" + orgID.String()
}
