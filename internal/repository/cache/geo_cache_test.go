package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) NearbySearch(ctx context.Context, lat, lon float64, placeType string, radiusM int) ([]domain.Place, error) {
	args := m.Called(ctx, lat, lon, placeType, radiusM)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Place), args.Error(1)
}

type mockElevation struct {
	mock.Mock
}

func (m *mockElevation) Elevation(ctx context.Context, lat, lon float64) (*float64, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, WrapClient(client, zap.NewNop())
}

func TestCacheRepository(t *testing.T) {
	mr, r := newMiniRedis(t)
	repo := NewCacheRepository(r, "test")
	ctx := context.Background()

	data, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	data, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	mr.FastForward(2 * time.Minute)
	data, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCellKey(t *testing.T) {
	a, err := CellKey("places", 12.9716, 77.5946, 10, "hospital", "5000")
	require.NoError(t, err)
	b, err := CellKey("places", 12.97161, 77.59461, 10, "hospital", "5000")
	require.NoError(t, err)
	c, err := CellKey("places", 12.9916, 77.5946, 10, "hospital", "5000")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^places:10:[0-9a-f]{15}:hospital:5000$`, a)

	_, err = CellKey("places", 0, 0, 16)
	assert.Error(t, err)
}

func TestPlacesCache_NearbySearch(t *testing.T) {
	_, r := newMiniRedis(t)
	ctx := context.Background()

	next := new(mockPlaces)
	places := []domain.Place{{PlaceID: "h1", Lat: 12.98, Lon: 77.60}}
	next.On("NearbySearch", mock.Anything, 12.9716, 77.5946, "hospital", 5000).Return(places, nil).Once()

	m := metrics.New("test")
	c := NewPlacesCache(next, NewCacheRepository(r, ""), time.Hour, 10, m, zap.NewNop())

	got, err := c.NearbySearch(ctx, 12.9716, 77.5946, "hospital", 5000)
	require.NoError(t, err)
	assert.Equal(t, places, got)

	// second call is served from the cache
	got, err = c.NearbySearch(ctx, 12.9716, 77.5946, "hospital", 5000)
	require.NoError(t, err)
	assert.Equal(t, places, got)

	next.AssertExpectations(t)
	next.AssertNumberOfCalls(t, "NearbySearch", 1)
}

func TestPlacesCache_ErrorsAreNotCached(t *testing.T) {
	_, r := newMiniRedis(t)
	ctx := context.Background()

	next := new(mockPlaces)
	next.On("NearbySearch", mock.Anything, 1.0, 2.0, "park", 5000).Return(nil, errors.New("denied")).Once()
	next.On("NearbySearch", mock.Anything, 1.0, 2.0, "park", 5000).Return([]domain.Place{}, nil).Once()

	c := NewPlacesCache(next, NewCacheRepository(r, ""), time.Hour, 10, nil, zap.NewNop())

	_, err := c.NearbySearch(ctx, 1, 2, "park", 5000)
	assert.Error(t, err)

	got, err := c.NearbySearch(ctx, 1, 2, "park", 5000)
	require.NoError(t, err)
	assert.Empty(t, got)

	// empty result is cached
	got, err = c.NearbySearch(ctx, 1, 2, "park", 5000)
	require.NoError(t, err)
	assert.Empty(t, got)

	next.AssertNumberOfCalls(t, "NearbySearch", 2)
}

func TestPlacesCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	mr, r := newMiniRedis(t)
	mr.Close()

	next := new(mockPlaces)
	next.On("NearbySearch", mock.Anything, 1.0, 2.0, "road", 5000).Return([]domain.Place{{PlaceID: "r"}}, nil).Twice()

	c := NewPlacesCache(next, NewCacheRepository(r, ""), time.Hour, 10, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		got, err := c.NearbySearch(context.Background(), 1, 2, "road", 5000)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	next.AssertExpectations(t)
}

func TestElevationCache(t *testing.T) {
	_, r := newMiniRedis(t)
	ctx := context.Background()

	elevation := 920.5
	next := new(mockElevation)
	next.On("Elevation", mock.Anything, 12.9716, 77.5946).Return(&elevation, nil).Once()
	next.On("Elevation", mock.Anything, 0.0, 0.0).Return(nil, nil).Once()

	c := NewElevationCache(next, NewCacheRepository(r, ""), time.Hour, 10, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		got, err := c.Elevation(ctx, 12.9716, 77.5946)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 920.5, *got)
	}

	for i := 0; i < 2; i++ {
		got, err := c.Elevation(ctx, 0, 0)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	next.AssertExpectations(t)
}
