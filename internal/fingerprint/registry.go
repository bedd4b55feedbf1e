// Package fingerprint remembers image fingerprints across claims so a photo
// reused on another claim can be reported. Matches are informational only.
package fingerprint

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"claimaudit/internal/review/models"
)

const (
	defaultPrefix = "claimaudit:fp:"
	// DefaultTTL is how long a fingerprint is remembered after its last sighting.
	DefaultTTL = 30 * 24 * time.Hour
	fieldSep   = "\x1f"
)

// RedisRegistry stores one hash per fingerprint: field "<file number>\x1f<image>",
// value the RFC 3339 time it was first seen.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*RedisRegistry)

func WithTTL(ttl time.Duration) Option {
	return func(r *RedisRegistry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(r *RedisRegistry) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func NewRedisRegistry(client redis.UniversalClient, opts ...Option) *RedisRegistry {
	r := &RedisRegistry{
		client: client,
		prefix: defaultPrefix,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Record stores the fingerprints of one claim and returns the sightings of the
// same fingerprints on other claims, ordered by image then claim.
func (r *RedisRegistry) Record(ctx context.Context, fileNumber string, fps []models.Fingerprint) ([]models.PriorMatch, error) {
	if len(fps) == 0 {
		return nil, nil
	}

	reads := make([]*redis.MapStringStringCmd, len(fps))
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, fp := range fps {
			reads[i] = p.HGetAll(ctx, r.key(fp.Hash))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read fingerprints: %w", err)
	}

	var matches []models.PriorMatch
	for i, fp := range fps {
		for field, seen := range reads[i].Val() {
			other, image, ok := strings.Cut(field, fieldSep)
			if !ok || other == fileNumber {
				continue
			}
			seenAt, _ := time.Parse(time.RFC3339, seen)
			matches = append(matches, models.PriorMatch{
				Image:           fp.Image,
				Hash:            fp.Hash,
				OtherFileNumber: other,
				OtherImage:      image,
				SeenAt:          seenAt,
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Image != matches[j].Image {
			return matches[i].Image < matches[j].Image
		}
		if matches[i].OtherFileNumber != matches[j].OtherFileNumber {
			return matches[i].OtherFileNumber < matches[j].OtherFileNumber
		}
		return matches[i].OtherImage < matches[j].OtherImage
	})

	now := r.now().UTC().Format(time.RFC3339)
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, fp := range fps {
			key := r.key(fp.Hash)
			p.HSetNX(ctx, key, fileNumber+fieldSep+fp.Image, now)
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return matches, fmt.Errorf("record fingerprints: %w", err)
	}
	return matches, nil
}

// Forget removes every fingerprint recorded for fileNumber under the given hashes.
func (r *RedisRegistry) Forget(ctx context.Context, fileNumber string, fps []models.Fingerprint) error {
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, fp := range fps {
			p.HDel(ctx, r.key(fp.Hash), fileNumber+fieldSep+fp.Image)
		}
		return nil
	})
	return err
}

func (r *RedisRegistry) key(hash string) string {
	return r.prefix + strings.ToLower(hash)
}
