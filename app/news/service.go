package news

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxQueryItems = 100

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// FetchNews returns stored items for a day. Without an owner only global
// items are returned. Store failures yield an empty list.
func (s *Service) FetchNews(ctx context.Context, channels []string, date, ownerID string) []Item {
	query := ItemQuery{
		Date:    cmp.Or(date, s.now().UTC().Format(dateLayout)),
		OwnerID: ownerID,
		Sources: MapSources(channels),
		Limit:   maxQueryItems,
	}

	items, err := s.repo.QueryItems(ctx, query)
	if err != nil {
		slog.Error("Failed to fetch news", "date", query.Date, "owner", ownerID, "error", err)
		return []Item{}
	}

	return items
}

// FetchNewsDetail returns the stored detail, or builds and stores one from
// the item and its citations. It returns nil when neither exists or the
// owner has no access.
func (s *Service) FetchNewsDetail(ctx context.Context, id, ownerID string) (*Detail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get news detail: %w", err)
	}
	if detail != nil {
		if !canAccess(detail.OwnerID, ownerID) {
			return nil, nil
		}
		if len(detail.Citations) > 0 {
			return detail, nil
		}
	}

	citations, err := s.repo.GetCitations(ctx, id)
	if err != nil {
		slog.Warn("Failed to load citations for detail", "id", id, "error", err)
		citations = nil
	}

	// A stored detail without citations is rebuilt once citations arrive
	if detail != nil && len(citations) == 0 {
		return detail, nil
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get news item: %w", err)
	}
	if item == nil {
		return detail, nil
	}
	if !canAccess(item.OwnerID, ownerID) {
		return nil, nil
	}

	built := BuildDetail(*item, citations, s.now().UTC())

	if err := s.repo.StoreDetail(ctx, built); err != nil {
		slog.Error("Failed to store news detail", "id", id, "error", err)
	}

	return &built, nil
}

func (s *Service) GetCitations(ctx context.Context, itemID string) ([]Citation, error) {
	return s.repo.GetCitations(ctx, itemID)
}

func (s *Service) CountItems(ctx context.Context) (int, error) {
	return s.repo.CountItems(ctx)
}

func canAccess(recordOwner, requester string) bool {
	return requester == "" || recordOwner == "" || recordOwner == requester
}
