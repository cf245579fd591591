package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/foodcart/backend/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

const (
	fieldLon       = "lon"
	fieldLat       = "lat"
	fieldCreatedAt = "created_at"
)

// RedisLocationStore keeps one hash per address under "location:{address}"
type RedisLocationStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisLocationStore connects to the Redis instance at url
func NewRedisLocationStore(ctx context.Context, url string) (*RedisLocationStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisLocationStore{rdb: rdb, now: time.Now}, nil
}

// Close releases the underlying connection pool
func (s *RedisLocationStore) Close() error {
	return s.rdb.Close()
}

// FindByAddresses reads all requested hashes in one pipeline round trip
func (s *RedisLocationStore) FindByAddresses(ctx context.Context, addresses []string) ([]domain.Location, error) {
	if len(addresses) == 0 {
		return []domain.Location{}, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(addresses))
	for i, address := range addresses {
		cmds[i] = pipe.HGetAll(ctx, locationKey(address))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}

	found := make([]domain.Location, 0, len(addresses))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		found = append(found, decodeLocation(addresses[i], fields))
	}
	return found, nil
}

// GetOrCreate stamps created_at if the hash is new and returns its current content
func (s *RedisLocationStore) GetOrCreate(ctx context.Context, address string) (*domain.Location, error) {
	key := locationKey(address)

	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, fieldCreatedAt, s.now().UTC().Format(time.RFC3339Nano))
	get := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis get or create %q: %w", address, err)
	}

	loc := decodeLocation(address, get.Val())
	return &loc, nil
}

// SaveCoordinate writes lon/lat, creating the hash if needed
func (s *RedisLocationStore) SaveCoordinate(ctx context.Context, address string, coord domain.Coordinate) error {
	key := locationKey(address)

	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, fieldCreatedAt, s.now().UTC().Format(time.RFC3339Nano))
	pipe.HSet(ctx, key,
		fieldLon, strconv.FormatFloat(coord.Lon, 'f', 6, 64),
		fieldLat, strconv.FormatFloat(coord.Lat, 'f', 6, 64),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %q: %w", address, err)
	}
	return nil
}

func locationKey(address string) string { return "location:" + address }

// decodeLocation tolerates partial hashes: unparsable coordinates leave the location unresolved
func decodeLocation(address string, fields map[string]string) domain.Location {
	loc := domain.Location{Address: address}

	if ts, ok := fields[fieldCreatedAt]; ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			loc.CreatedAt = parsed
		}
	}

	lonRaw, hasLon := fields[fieldLon]
	latRaw, hasLat := fields[fieldLat]
	if !hasLon || !hasLat {
		return loc
	}
	lon, errLon := strconv.ParseFloat(lonRaw, 64)
	lat, errLat := strconv.ParseFloat(latRaw, 64)
	if errLon != nil || errLat != nil {
		return loc
	}
	loc.SetCoordinate(domain.NewCoordinate(lon, lat))
	return loc
}

var _ domain.LocationRepository = (*RedisLocationStore)(nil)
