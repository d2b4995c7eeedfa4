package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/model"
)

func newTestRegistry(t *testing.T, gw Gateway) *Registry {
	t.Helper()
	return NewRegistry(RegistryParams{
		LC: fxtest.NewLifecycle(t),
		Config: &config.Config{
			Session: config.Session{Lifetime: config.Duration(time.Hour)},
		},
		Log:     zap.NewNop(),
		Gateway: gw,
		Tokens:  &MemoryTokenStore{},
	})
}

func Test_Registry_For(t *testing.T) {
	assert := assert.New(t)

	gw := &fakeGateway{}
	r := newTestRegistry(t, gw)
	ctx := context.Background()

	a := r.For(ctx, "browser-a")
	assert.Same(a, r.For(ctx, "browser-a"), "one store per browser session")
	assert.NotSame(a, r.For(ctx, "browser-b"))
	assert.Equal(2, r.Len())

	assert.False(a.Snapshot().Loading, "a new store is restored before being handed out")
}

func Test_Registry_restoresStoredToken(t *testing.T) {
	assert := assert.New(t)

	gw := &fakeGateway{meRes: &model.User{ID: "u1", Name: "Ann"}}
	r := newTestRegistry(t, gw)
	r.tokens.Save(context.Background(), "tok-1")

	s := r.For(context.Background(), "browser-a")
	assert.True(s.IsAuthenticated())
	assert.Equal(1, gw.meCalls)

	// the same browser coming back does not re-restore
	r.For(context.Background(), "browser-a")
	assert.Equal(1, gw.meCalls)
}

func Test_Registry_sweep(t *testing.T) {
	assert := assert.New(t)

	r := newTestRegistry(t, &fakeGateway{})
	ctx := context.Background()

	r.For(ctx, "old")
	r.For(ctx, "new")

	r.mu.Lock()
	r.entries["old"].lastSeen = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	r.sweep(time.Now())
	assert.Equal(1, r.Len())

	// an evicted browser gets a fresh store on its next visit
	fresh := r.For(ctx, "old")
	assert.NotNil(fresh)
	assert.Equal(2, r.Len())
}
