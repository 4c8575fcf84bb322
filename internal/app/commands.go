package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"hotel_listings/internal/domain"
)

type CommandService struct {
	repo         domain.HotelRepository
	cache        domain.Cache
	storeTimeout time.Duration
}

func NewCommandService(r domain.HotelRepository, c domain.Cache, storeTimeout time.Duration) *CommandService {
	return &CommandService{repo: r, cache: c, storeTimeout: storeTimeout}
}

// Slugify is the URL-safe form of a hotel name: lowercase, diacritics
// stripped, words joined with hyphens.
func Slugify(name string) string { return slug.Make(name) }

func (s *CommandService) Create(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	in = normalizeInput(in)
	if err := validateStruct(ctx, in); err != nil {
		return domain.Hotel{}, err
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.ensureType(ctx, in.TypeID); err != nil {
		return domain.Hotel{}, err
	}
	if err := s.ensureNameFree(ctx, in.Name, ""); err != nil {
		return domain.Hotel{}, err
	}

	h := fromInput(in)
	// a concurrent create with the same name fails on the unique index
	if err := s.repo.Create(ctx, &h); err != nil {
		return domain.Hotel{}, err
	}
	s.invalidate(ctx, "")
	return h, nil
}

// Update replaces every mutable field of hotel id and recomputes its slug.
func (s *CommandService) Update(ctx context.Context, id string, in domain.HotelInput) error {
	in = normalizeInput(in)
	if err := validateStruct(ctx, in); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureType(ctx, in.TypeID); err != nil {
		return err
	}
	if err := s.ensureNameFree(ctx, in.Name, id); err != nil {
		return err
	}

	h := fromInput(in)
	h.ID = id
	h.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateByID(ctx, id, h); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Delete hard-deletes hotel id. A missing id yields domain.ErrNotFound.
func (s *CommandService) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CommandService) CreateType(ctx context.Context, in domain.HotelTypeInput) (domain.HotelType, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(ctx, in); err != nil {
		return domain.HotelType{}, err
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	t := domain.HotelType{Name: in.Name, Description: in.Description}
	if err := s.repo.CreateType(ctx, &t); err != nil {
		return domain.HotelType{}, err
	}
	return t, nil
}

func (s *CommandService) ensureType(ctx context.Context, typeID string) error {
	types, err := s.repo.ResolveTypes(ctx, []string{typeID})
	if err != nil {
		return fmt.Errorf("resolve hotel type: %w", err)
	}
	if _, ok := types[typeID]; !ok {
		return unknownTypeError(typeID)
	}
	return nil
}

// ensureNameFree fails with domain.ErrDuplicateName when another record
// (other than excludeID) already holds name.
func (s *CommandService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	dups, err := s.repo.FindMany(ctx, domain.HotelFilter{Name: name, ExcludeID: excludeID})
	if err != nil {
		return fmt.Errorf("check hotel name: %w", err)
	}
	if len(dups) > 0 {
		return domain.ErrDuplicateName
	}
	return nil
}

// invalidate drops the cached detail for id (if any) and bumps the list
// generation. Cache errors are logged, never returned.
func (s *CommandService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	// bump first: readers compare the generation before caching a record
	if _, err := s.cache.Incr(ctx, listGenKey); err != nil {
		log.Warn().Err(err).Msg("cache generation bump failed")
	}
	if id != "" {
		if err := s.cache.Del(ctx, hotelKey(id)); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("cache del failed")
		}
	}
}

func fromInput(in domain.HotelInput) domain.Hotel {
	h := domain.Hotel{
		Name:   in.Name,
		TypeID: in.TypeID,
		Address: domain.Address{
			Province:      in.Address.Province,
			District:      in.Address.District,
			Ward:          in.Address.Ward,
			StreetAddress: in.Address.StreetAddress,
		},
		Slug:        Slugify(in.Name),
		Image:       domain.Image{Path: in.Image.Path},
		Description: in.Description,
	}
	if in.Ranking != nil {
		h.Ranking = *in.Ranking
	}
	return h
}
