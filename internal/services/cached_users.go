package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/models"
)

type ProfileLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.UserProfile, error)
}

// CachedProfileLookup reads profiles through a cache. Profiles never change
// after registration so entries are not invalidated; misses are not cached.
type CachedProfileLookup struct {
	next   ProfileLookup
	cache  cache.Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachedProfileLookup(next ProfileLookup, c cache.Cache, ttl time.Duration, logger logrus.FieldLogger) *CachedProfileLookup {
	return &CachedProfileLookup{next: next, cache: c, ttl: ttl, logger: logger}
}

func profileCacheKey(username string) string {
	return "user_profile:" + username
}

func (l *CachedProfileLookup) FindByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	key := profileCacheKey(username)

	var cached models.UserProfile
	err := l.cache.Get(key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.logger.WithError(err).WithField("key", key).Warn("Profile cache read failed")
	}

	profile, err := l.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(key, profile, l.ttl); err != nil {
		l.logger.WithError(err).WithField("key", key).Debug("Profile cache write failed")
	}
	return profile, nil
}
