package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = config.MemoryDSN
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.BcryptCost = 4
	c.SecretKey = "app-test-secret"
	return c
}

func TestOpenBackend_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBackend(ctx, memoryConfig(), logging.Nop(), true)
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Postgres)
	assert.Equal(t, 30*time.Minute, b.Tokens.TTL())

	res, err := b.Accounts.RegisterAndLogin(ctx, accounts.RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	got, err := b.Accounts.ResolveIdentity(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestOpenBackend_EmptySecret(t *testing.T) {
	c := memoryConfig()
	c.SecretKey = ""
	_, err := OpenBackend(context.Background(), c, logging.Nop(), false)
	require.ErrorContains(t, err, "token service init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, err := NewApp(ctx, memoryConfig(), logging.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_RunStopsWhenServerFails(t *testing.T) {
	c := memoryConfig()
	c.EndpointAddrHTTP = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after listen failure")
	}
}
