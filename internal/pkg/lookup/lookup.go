// Package lookup serves the Malaysian states and cities reference lists through a
// read-through cache.
package lookup

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "propertyhub/internal/pkg/errors"
)

const statesKey = "states"

type Service struct {
	cache Cache
	data  map[string][]string
}

func NewService(cache Cache) *Service {
	return &Service{cache: cache, data: malaysia}
}

// States returns every state name, sorted.
func (s *Service) States(ctx context.Context) []string {
	return s.load(ctx, statesKey, func() []string {
		names := make([]string, 0, len(s.data))
		for name := range s.data {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	})
}

// Cities returns the towns of state. The state name is matched case-insensitively.
func (s *Service) Cities(ctx context.Context, state string) ([]string, error) {
	canonical, ok := s.Canonical(state)
	if !ok {
		return nil, apperrors.NotFound("state")
	}
	return s.load(ctx, "cities:"+canonical, func() []string {
		cities := append([]string(nil), s.data[canonical]...)
		sort.Strings(cities)
		return cities
	}), nil
}

// Canonical maps a user-supplied state name onto the dataset's spelling.
func (s *Service) Canonical(state string) (string, bool) {
	state = strings.TrimSpace(state)
	for name := range s.data {
		if strings.EqualFold(name, state) {
			return name, true
		}
	}
	return "", false
}

func (s *Service) IsValidState(state string) bool {
	_, ok := s.Canonical(state)
	return ok
}

// load is read-through; a broken cache degrades to the in-process dataset.
func (s *Service) load(ctx context.Context, key string, build func() []string) []string {
	if values, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Lookup cache read failed")
	} else if ok {
		return values
	}

	values := build()
	if err := s.cache.Set(ctx, key, values); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Lookup cache write failed")
	}
	return values
}
