package factory

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/battleship/internal/dependencies/mocks"
	"github.com/mcoot/battleship/internal/services/player"
	"github.com/mcoot/battleship/internal/storage/memory"
	"github.com/mcoot/battleship/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{}, testutil.NopLogger())
}

// NewTestAppWithConfig is NewTestApp with factory settings applied
func NewTestAppWithConfig(cfg Config, logger *slog.Logger) *TestApp {
	store := memory.New()
	mockClock := mocks.NewSteppingMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.Second)
	mockRandom := mocks.NewMockRandom()

	if cfg.PlayerConfig.BcryptCost == 0 {
		cfg.PlayerConfig = player.Config{BcryptCost: bcrypt.MinCost}
	}

	app := newWithDependencies(store, mockClock, mockRandom, cfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
