package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

// ProfileService reads and updates profiles.
type ProfileService interface {
	Get(ctx context.Context, caller policy.Caller, id string) (dto.ProfileResponse, error)
	UpdateMe(ctx context.Context, caller policy.Caller, req dto.UpdateProfileRequest) (dto.ProfileResponse, error)
	// LookupDirect resolves the identity columns of any profile without the
	// row policy. It only requires an authenticated caller.
	LookupDirect(ctx context.Context, caller policy.Caller, id string) (repository.ProfileLookup, error)
}

type profileService struct {
	stores    *StoreSelector
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewProfileService constructs the profile service. cache is optional.
func NewProfileService(stores *StoreSelector, activity ActivityRecorder, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) ProfileService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &profileService{
		stores:    stores,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, caller policy.Caller, id string) (dto.ProfileResponse, error) {
	id = strings.TrimSpace(id)
	if err := authorize(policy.ReadProfile(caller, id)); err != nil {
		return dto.ProfileResponse{}, err
	}

	profile, err := s.stores.For(caller).Profiles().Get(ctx, id)
	if err != nil {
		return dto.ProfileResponse{}, storeError(err, ErrProfileNotFound)
	}
	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) UpdateMe(ctx context.Context, caller policy.Caller, req dto.UpdateProfileRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}
	if err := authorize(policy.UpdateProfile(caller, caller.ID)); err != nil {
		return dto.ProfileResponse{}, err
	}

	update := repository.ProfileUpdate{}
	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.ProfileResponse{}, validationError("name is empty after sanitization")
		}
		update.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		update.Email = &email
	}

	var profile models.Profile
	err := s.stores.For(caller).Transaction(ctx, func(tx repository.Store) error {
		updated, err := tx.Profiles().Update(ctx, caller.ID, update)
		if err != nil {
			return err
		}
		profile = updated
		if !caller.IsStudent() || (update.Name == nil && update.Email == nil) {
			return nil
		}

		// Student rows carry a copy of name and email. They are created
		// lazily, so a missing row is left alone.
		_, err = tx.Students().Update(ctx, caller.ID, repository.StudentUpdate{Name: update.Name, Email: update.Email})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return dto.ProfileResponse{}, storeError(err, ErrProfileNotFound)
	}

	s.invalidateLookup(ctx, caller, caller.ID)
	if !update.Empty() {
		_, _ = s.activity.Record(ctx, caller, ActionEntry{
			Action:     models.ActionProfileUpdated,
			EntityType: "profile",
			EntityID:   caller.ID,
		})
	}

	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) LookupDirect(ctx context.Context, caller policy.Caller, id string) (repository.ProfileLookup, error) {
	if err := authorize(policy.DirectLookup(caller)); err != nil {
		return repository.ProfileLookup{}, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return repository.ProfileLookup{}, validationError("profile id is required")
	}

	cacheKey := s.lookupKey(caller, id)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var lookup repository.ProfileLookup
			if unmarshalErr := json.Unmarshal([]byte(cached), &lookup); unmarshalErr == nil {
				return lookup, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read profile lookup cache")
		}
	}

	lookup, err := s.stores.For(caller).Profiles().LookupDirect(ctx, id)
	if err != nil {
		return repository.ProfileLookup{}, storeError(err, ErrProfileNotFound)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(lookup); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store profile lookup cache")
			}
		}
	}

	return lookup, nil
}

func (s *profileService) invalidateLookup(ctx context.Context, caller policy.Caller, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.lookupKey(caller, id)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate profile lookup cache")
	}
}

func (s *profileService) lookupKey(caller policy.Caller, id string) string {
	return fmt.Sprintf("profile:direct:%s:%s", s.stores.Scope(caller), id)
}
