package compound

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRegistry_Validation(t *testing.T) {
	factory := func(ctx context.Context, address string) (RateSource, string, error) {
		return testutil.NewMockRateSource("1"), "cdai", nil
	}

	tests := []struct {
		name string
		cfg  *RegistryConfig
	}{
		{name: "nil-config", cfg: nil},
		{name: "nil-factory", cfg: &RegistryConfig{RefreshInterval: time.Second, Logger: zap.NewNop()}},
		{name: "nil-logger", cfg: &RegistryConfig{Factory: factory, RefreshInterval: time.Second}},
		{name: "zero-interval", cfg: &RegistryConfig{Factory: factory, Logger: zap.NewNop()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_GetCachesConverter(t *testing.T) {
	source := testutil.NewMockRateSource("200000000000000000000000000")
	created := 0
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			created++
			return source, "cDAI", nil
		},
		RefreshInterval: time.Minute,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := reg.Get(ctx, "0xABC")
	require.NoError(t, err)
	second, err := reg.Get(ctx, "0xabc")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
	assert.True(t, first.Ready())
	assert.Equal(t, "cdai", first.Symbol())
}

func TestRegistry_GetRejectsNonCToken(t *testing.T) {
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			return testutil.NewMockRateSource("1"), "DAI", nil
		},
		RefreshInterval: time.Minute,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), "0xdai")
	assert.ErrorContains(t, err, "not a supported cToken")
}

func TestRegistry_GetPropagatesFactoryError(t *testing.T) {
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			return nil, "", errors.New("dial failed")
		},
		RefreshInterval: time.Minute,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), "0x1")
	assert.ErrorContains(t, err, "dial failed")
}

func TestRegistry_RefreshAll(t *testing.T) {
	source := testutil.NewMockRateSource("200000000000000000000000000")
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			return source, "cdai", nil
		},
		RefreshInterval: time.Minute,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	conv, err := reg.Get(context.Background(), "0x1")
	require.NoError(t, err)

	source.SetRate(new(big.Int).Mul(big.NewInt(4e8), big.NewInt(1e18)), nil) // 4e26 -> unit 0.04
	require.NoError(t, reg.RefreshAll(context.Background()))

	assert.Equal(t, "4000000000000000000", conv.ToBase(big.NewInt(100_00000000), 18).String())
	assert.Equal(t, int64(2), source.CallCount())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			return testutil.NewMockRateSource("1"), "cdai", nil
		},
		RefreshInterval: 10 * time.Millisecond,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = reg.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_Check(t *testing.T) {
	source := testutil.NewMockRateSource("0")
	reg, err := NewRegistry(&RegistryConfig{
		Factory: func(ctx context.Context, address string) (RateSource, string, error) {
			return source, "cUSDC", nil
		},
		RefreshInterval: time.Minute,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, reg.Check(ctx), "empty registry is ready")

	conv, err := reg.Get(ctx, "0x39AA39c021dfbaE8faC545936693aC917d5E7563")
	require.NoError(t, err)
	assert.Error(t, reg.Check(ctx), "zero rate is not ready")

	conv.SetRate(big.NewInt(210000000000000))
	assert.NoError(t, reg.Check(ctx))
}
