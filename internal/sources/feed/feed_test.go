package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
)

func feedCfg(mirrors ...config.Mirror) config.SourceConfig {
	return config.SourceConfig{
		Name:    "tx-feed",
		Type:    enum.SourceTypeFeed,
		Mirrors: mirrors,
		Client:  config.ClientCfg{MaxRetries: 3, RetryDelay: time.Millisecond},
	}
}

func TestFeed_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Gold Rush","price":10},{"name":"Cash Blast","price":"5"}]`))
	}))
	defer srv.Close()

	f, err := New(feedCfg(config.Mirror{URL: srv.URL}))
	require.NoError(t, err)

	games, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Gold Rush", games[0].Name.String())
	assert.Equal(t, "5", games[1].Price.String())

	total, healthy, failed := f.Stats()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, healthy)
	assert.Equal(t, 0, failed)
}

func TestFeed_SingleDocumentPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Solo"}`))
	}))
	defer srv.Close()

	f, err := New(feedCfg(config.Mirror{URL: srv.URL}))
	require.NoError(t, err)

	games, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Solo", games[0].Name.String())
}

func TestFeed_FailsOverToHealthyMirror(t *testing.T) {
	var deadHits atomic.Int32
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadHits.Add(1)
		http.Error(w, "down for maintenance", http.StatusInternalServerError)
	}))
	defer dead.Close()

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Survivor"}]`))
	}))
	defer live.Close()

	f, err := New(feedCfg(config.Mirror{URL: dead.URL}, config.Mirror{URL: live.URL}))
	require.NoError(t, err)

	games, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Survivor", games[0].Name.String())

	assert.GreaterOrEqual(t, deadHits.Load(), int32(1))
	_, _, failed := f.Stats()
	assert.Equal(t, 1, failed)
}

func TestFeed_GivesUpWhenAllMirrorsFail(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := feedCfg(config.Mirror{URL: srv.URL})
	cfg.Client.MaxRetries = 2
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed tx-feed")
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Equal(t, int32(3), hits.Load(), "initial try plus two retries")
}

func TestFeed_RejectsGarbagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`scheduled maintenance page`))
	}))
	defer srv.Close()

	cfg := feedCfg(config.Mirror{URL: srv.URL})
	cfg.Client.MaxRetries = 1
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload")
}

func TestFeed_SendsBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekrit" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := feedCfg(config.Mirror{URL: srv.URL, ApiKey: "sekrit"})
	cfg.Client.MaxRetries = 1
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	assert.NoError(t, err)
}

func TestFeed_SendsCustomHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Token") != "tok-123" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := feedCfg(config.Mirror{URL: srv.URL, Headers: map[string]string{"X-Api-Token": "tok-123"}})
	cfg.Client.MaxRetries = 1
	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	assert.NoError(t, err)
}

func TestFeed_CancelledContext(t *testing.T) {
	f, err := New(feedCfg(config.Mirror{URL: "http://127.0.0.1:0"}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMirrorPool_Rotation(t *testing.T) {
	p := newMirrorPool([]string{"a", "b", "c"})

	assert.Equal(t, "a", p.next())
	assert.Equal(t, "b", p.next())
	assert.Equal(t, "c", p.next())
	assert.Equal(t, "a", p.next())
}

func TestMirrorPool_SkipsFailed(t *testing.T) {
	p := newMirrorPool([]string{"a", "b"})
	p.markFailed("a")

	assert.Equal(t, "b", p.next())
	assert.Equal(t, "b", p.next())

	p.markHealthy("a")
	total, healthy, failed := p.stats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, healthy)
	assert.Equal(t, 0, failed)
}

func TestMirrorPool_ResetsWhenAllFailed(t *testing.T) {
	p := newMirrorPool([]string{"a", "b"})
	p.markFailed("a")
	p.markFailed("b")

	assert.Equal(t, "a", p.next(), "all failed wipes the slate")
	_, healthy, _ := p.stats()
	assert.Equal(t, 2, healthy)
}

func TestAuthFromMirror(t *testing.T) {
	assert.Nil(t, authFromMirror(config.Mirror{URL: "http://x"}))

	bearer := authFromMirror(config.Mirror{ApiKey: "abc"})
	require.NotNil(t, bearer)
	assert.Equal(t, authBearer, bearer.typ)
	assert.Equal(t, "abc", bearer.token)

	prefixed := authFromMirror(config.Mirror{ApiKey: "Bearer xyz"})
	require.NotNil(t, prefixed)
	assert.Equal(t, "xyz", prefixed.token)

	// headers win over an api key
	custom := authFromMirror(config.Mirror{ApiKey: "abc", Headers: map[string]string{"X-K": "v"}})
	require.NotNil(t, custom)
	assert.Equal(t, authCustom, custom.typ)
	assert.Empty(t, custom.token)
}
