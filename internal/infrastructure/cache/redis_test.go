package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/foodcart/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLocation(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		fields   map[string]string
		resolved bool
		want     domain.Coordinate
	}{
		{
			name: "full hash",
			fields: map[string]string{
				fieldCreatedAt: created.Format(time.RFC3339Nano),
				fieldLon:       "37.600000",
				fieldLat:       "55.760000",
			},
			resolved: true,
			want:     domain.Coordinate{Lon: 37.6, Lat: 55.76},
		},
		{
			name:   "created only",
			fields: map[string]string{fieldCreatedAt: created.Format(time.RFC3339Nano)},
		},
		{
			name:   "missing latitude",
			fields: map[string]string{fieldLon: "37.6"},
		},
		{
			name:   "garbage longitude",
			fields: map[string]string{fieldLon: "east", fieldLat: "55.76"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := decodeLocation("Arbat 10", tt.fields)
			assert.Equal(t, "Arbat 10", loc.Address)

			coord, ok := loc.Coordinate()
			assert.Equal(t, tt.resolved, ok)
			if tt.resolved {
				assert.Equal(t, tt.want, coord)
				assert.Equal(t, created, loc.CreatedAt)
			}
		})
	}
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "location:Tverskaya 1", locationKey("Tverskaya 1"))
}

// Runs only against a live Redis: FOODCART_TEST_REDIS_URL=redis://localhost:6379/0
func TestRedisLocationStore_Integration(t *testing.T) {
	url := os.Getenv("FOODCART_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FOODCART_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedisLocationStore(ctx, url)
	require.NoError(t, err)
	defer store.Close()

	address := "test " + uuid.NewString()
	defer store.rdb.Del(ctx, locationKey(address))

	loc, err := store.GetOrCreate(ctx, address)
	require.NoError(t, err)
	_, ok := loc.Coordinate()
	assert.False(t, ok)
	assert.False(t, loc.CreatedAt.IsZero())

	coord := domain.NewCoordinate(37.62, 55.75)
	require.NoError(t, store.SaveCoordinate(ctx, address, coord))

	found, err := store.FindByAddresses(ctx, []string{address, "missing " + uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	got, ok := found[0].Coordinate()
	require.True(t, ok)
	assert.Equal(t, coord, got)
	assert.Equal(t, loc.CreatedAt, found[0].CreatedAt)
}
