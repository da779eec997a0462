// Package services – DirectoryService
//
// This file implements the DirectoryService, which serves the public expert
// directory: text search with relevance ranking, location/category filters,
// derived facets, and individual profiles with their normalized service
// offers. Expert rows are loaded through a Redis read-through cache; the
// directory changes rarely but is queried on every search keystroke.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xandme/xandme-backend/internal/cache"
	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
	"github.com/xandme/xandme-backend/internal/search"
)

// Cache keys for directory reads.
const (
	cacheKeyExperts = "directory:experts"
	cacheKeyFacets  = "directory:facets"
)

// ExpertProfile is a directory entry enriched with the canonical service
// offers decoded from the stored raw JSON.
type ExpertProfile struct {
	domain.Expert
	Offers []domain.ServiceOffer `json:"offers"`
	Slug   string                `json:"slug"`
}

// DirectoryService answers directory searches and profile lookups.
type DirectoryService struct {
	DB    *gorm.DB
	Cache *cache.Store
}

// NewDirectoryService constructs a DirectoryService. Cache may be nil, in
// which case every read goes to the database.
func NewDirectoryService(db *gorm.DB, c *cache.Store) *DirectoryService {
	return &DirectoryService{DB: db, Cache: c}
}

// Search returns experts matching the free-text query and filters, ranked by
// relevance. Terms OR together; the ville and categorie filters AND with the
// text match. An empty query matches everyone (the filters still apply), and
// an empty result is a valid answer, never an error.
func (s *DirectoryService) Search(ctx context.Context, query, ville, categorie string) ([]domain.Expert, error) {
	tr := otel.Tracer("services/DirectoryService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.String("ville", ville),
			attribute.String("categorie", categorie),
		),
	)
	defer span.End()

	experts, err := s.loadExperts(ctx)
	if err != nil {
		return nil, err
	}

	terms := search.Terms(query)
	matched := make([]domain.Expert, 0, len(experts))
	for _, e := range experts {
		if len(terms) > 0 && !search.MatchesTerms(e, terms) {
			continue
		}
		if ville != "" && !search.MatchesCity(e, ville) {
			continue
		}
		if categorie != "" && !search.MatchesCategory(e, categorie) {
			continue
		}
		matched = append(matched, e)
	}
	return search.Rank(matched, terms), nil
}

// Facets returns the country→cities map and activity labels derived from the
// current directory.
func (s *DirectoryService) Facets(ctx context.Context) (search.Facets, error) {
	tr := otel.Tracer("services/DirectoryService")
	ctx, span := tr.Start(ctx, "Facets")
	defer span.End()

	var cached search.Facets
	if s.Cache.GetJSON(ctx, cacheKeyFacets, &cached) {
		return cached, nil
	}

	experts, err := s.loadExperts(ctx)
	if err != nil {
		return search.Facets{}, err
	}
	f := search.DeriveFacets(experts)
	s.Cache.SetJSON(ctx, cacheKeyFacets, f)
	return f, nil
}

// Profile returns the full expert profile for a public id or slug, with
// service offers normalized into their canonical shape. Undecodable stored
// services JSON degrades to an empty offer list rather than failing the
// profile.
func (s *DirectoryService) Profile(ctx context.Context, ref string) (*ExpertProfile, error) {
	tr := otel.Tracer("services/DirectoryService")
	ctx, span := tr.Start(ctx, "Profile",
		trace.WithAttributes(attribute.String("expert.ref", ref)),
	)
	defer span.End()

	id := PublicIDFromRef(ref)
	if id == "" {
		return nil, ErrExpertNotFound
	}
	e, err := repo.GetExpertByPublicID(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrExpertNotFound
		}
		return nil, err
	}

	offers, derr := domain.DecodeServices(e.Services)
	if derr != nil && !errors.Is(derr, domain.ErrUnknownServicesShape) {
		return nil, derr
	}
	return &ExpertProfile{Expert: *e, Offers: offers, Slug: e.Slug()}, nil
}

// ResolveExpert coerces an expert reference (numeric surrogate key, public
// id, or profile slug) to a stored expert. Used by the contact workflow.
func (s *DirectoryService) ResolveExpert(ctx context.Context, ref string) (*domain.Expert, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrInvalidExpertRef
	}
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		e, err := repo.GetExpertByID(ctx, s.DB, n)
		if err == nil {
			return e, nil
		}
		if !repo.IsNotFound(err) {
			return nil, err
		}
		// fall through: a purely numeric public id is legal
	}
	id := PublicIDFromRef(ref)
	e, err := repo.GetExpertByPublicID(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidExpertRef
		}
		return nil, err
	}
	return e, nil
}

// UpdateServices replaces an expert's raw services JSON after checking it
// decodes into one of the accepted shapes, then invalidates the directory
// cache (administrative path).
func (s *DirectoryService) UpdateServices(ctx context.Context, idExpert, servicesJSON string) error {
	if _, err := domain.DecodeServices(servicesJSON); err != nil {
		return err
	}
	if err := repo.UpdateExpertServices(ctx, s.DB, idExpert, servicesJSON); err != nil {
		if repo.IsNotFound(err) {
			return ErrExpertNotFound
		}
		return err
	}
	s.Cache.Invalidate(ctx, cacheKeyExperts, cacheKeyFacets)
	return nil
}

// PublicIDFromRef extracts the opaque expert id from a profile slug
// ("claire-durand-ex42" → "ex42"). A ref without dashes is returned as-is.
func PublicIDFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "-"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func (s *DirectoryService) loadExperts(ctx context.Context) ([]domain.Expert, error) {
	var cached []domain.Expert
	if s.Cache.GetJSON(ctx, cacheKeyExperts, &cached) {
		return cached, nil
	}
	experts, err := repo.ListExperts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, cacheKeyExperts, experts)
	return experts, nil
}
