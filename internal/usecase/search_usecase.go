package usecase

import (
	"context"
	"strings"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

// SearchUseCase code lookup over a session's catalog
type SearchUseCase interface {
	// Search filters rows whose code contains query, ignoring case
	Search(ctx context.Context, sessionID, query string) (*entity.SearchResult, error)
}

type searchUseCase struct {
	sessions repository.SessionRepository
	images   repository.ImageStore
}

// NewSearchUseCase creates the search use case
func NewSearchUseCase(sessions repository.SessionRepository, images repository.ImageStore) SearchUseCase {
	return &searchUseCase{sessions: sessions, images: images}
}

// Search never mutates the session. An empty query yields the prompt
// state carrying every row without image views.
func (u *searchUseCase) Search(ctx context.Context, sessionID, query string) (*entity.SearchResult, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	result := &entity.SearchResult{Query: query}

	if query == "" {
		result.State = entity.SearchPrompt
		for i, p := range session.Catalog.Products {
			result.Hits = append(result.Hits, entity.SearchHit{Index: i, Product: p})
		}
		return result, nil
	}

	needle := strings.ToLower(query)
	for i, p := range session.Catalog.Products {
		if strings.TrimSpace(p.Code) == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Code), needle) {
			continue
		}
		hit := entity.SearchHit{Index: i, Product: p}
		for _, ref := range p.ImageRefs {
			hit.Images = append(hit.Images, u.images.Describe(ctx, ref))
		}
		result.Hits = append(result.Hits, hit)
	}

	if len(result.Hits) == 0 {
		result.State = entity.SearchNotFound
	} else {
		result.State = entity.SearchFound
	}
	return result, nil
}
