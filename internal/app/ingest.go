package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hotel_listings/internal/domain"
)

type IngestionService struct {
	cmd  *CommandService
	repo domain.HotelRepository

	mu     sync.Mutex
	ids    map[string]bool
	byName map[string]string // lower(type name) -> id
}

func NewIngestionService(cmd *CommandService, r domain.HotelRepository) *IngestionService {
	return &IngestionService{cmd: cmd, repo: r}
}

// IngestRecord maps a catalog record and creates it. The record's type may
// be a type id or a type name; unknown names are created on the fly.
// Safe for concurrent use.
func (s *IngestionService) IngestRecord(ctx context.Context, rec map[string]any) (domain.Hotel, error) {
	in := MapCatalogRecord(rec)
	if in.TypeID != "" {
		id, err := s.typeID(ctx, in.TypeID)
		if err != nil {
			return domain.Hotel{}, err
		}
		in.TypeID = id
	}
	return s.cmd.Create(ctx, in)
}

func (s *IngestionService) typeID(ctx context.Context, ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids == nil {
		if err := s.loadTypes(ctx); err != nil {
			return "", err
		}
	}
	if s.ids[ref] {
		return ref, nil
	}
	key := strings.ToLower(ref)
	if id, ok := s.byName[key]; ok {
		return id, nil
	}

	t, err := s.cmd.CreateType(ctx, domain.HotelTypeInput{Name: ref})
	if errors.Is(err, domain.ErrDuplicateName) {
		// created elsewhere since the last load
		if err := s.loadTypes(ctx); err != nil {
			return "", err
		}
		if id, ok := s.byName[key]; ok {
			return id, nil
		}
		return "", fmt.Errorf("hotel type %q exists but could not be loaded", ref)
	}
	if err != nil {
		return "", fmt.Errorf("create hotel type %q: %w", ref, err)
	}
	s.ids[t.ID] = true
	s.byName[key] = t.ID
	return t.ID, nil
}

func (s *IngestionService) loadTypes(ctx context.Context) error {
	ts, err := s.repo.ListTypes(ctx)
	if err != nil {
		return fmt.Errorf("list hotel types: %w", err)
	}
	s.ids = make(map[string]bool, len(ts))
	s.byName = make(map[string]string, len(ts))
	for _, t := range ts {
		s.ids[t.ID] = true
		s.byName[strings.ToLower(t.Name)] = t.ID
	}
	return nil
}
