package fetch

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contextmap/contextmap-go/internal/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	tests := []struct {
		source string
		want   string
		ok     bool
	}{
		{"data/context.json", "data/context.json", true},
		{"/abs/places.json", "/abs/places.json", true},
		{"file:///tmp/combo.json", "/tmp/combo.json", true},
		{"https://example.com/people.json", "", false},
		{"ws://localhost/ws/context", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, ok := Local(tt.source)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Local(%q) = %q, %v; want %q, %v", tt.source, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRouter_FetchFile(t *testing.T) {
	dir, err := testutil.WriteDatasets(t.TempDir(), testutil.SampleDatasets())
	require.NoError(t, err)

	r := New(Options{BaseDir: dir})
	data, err := r.Fetch(context.Background(), testutil.ContextName)
	require.NoError(t, err)
	assert.JSONEq(t, testutil.SampleContext, string(data))

	data, err = r.Fetch(context.Background(), "file://"+filepath.Join(dir, testutil.PlacesName))
	require.NoError(t, err)
	assert.JSONEq(t, testutil.SamplePlaces, string(data))
}

func TestRouter_FetchFileMissing(t *testing.T) {
	r := New(Options{BaseDir: t.TempDir()})
	_, err := r.Fetch(context.Background(), "nope.json")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestRouter_Resolve(t *testing.T) {
	r := New(Options{BaseDir: "/srv/data"})

	path, ok := r.Resolve("boundary.shp")
	assert.True(t, ok)
	assert.Equal(t, "/srv/data/boundary.shp", path)

	path, ok = r.Resolve("/elsewhere/boundary.shp")
	assert.True(t, ok)
	assert.Equal(t, "/elsewhere/boundary.shp", path)

	_, ok = r.Resolve("http://example.com/boundary.shp")
	assert.False(t, ok)
}

func TestRouter_FetchHTTP(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetDataset(testutil.ConnectionsName, []byte(testutil.SampleConnections))

	r := New(Options{})
	data, err := r.Fetch(context.Background(), server.DataURL(testutil.ConnectionsName))
	require.NoError(t, err)
	assert.JSONEq(t, testutil.SampleConnections, string(data))
}

func TestRouter_FetchHTTPErrors(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetDataset("broken.json", []byte("[]"))
	server.SetStatus("broken.json", http.StatusInternalServerError)

	r := New(Options{})

	_, err := r.Fetch(context.Background(), server.DataURL("missing.json"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	_, err = r.Fetch(context.Background(), server.DataURL("broken.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")
}

func TestRouter_FetchHTTPCache(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetDataset(testutil.PlacesName, []byte(testutil.SamplePlaces))

	cacheDir := t.TempDir()
	r := New(Options{CacheDir: cacheDir, CacheTTL: time.Hour})
	url := server.DataURL(testutil.PlacesName)

	for i := 0; i < 3; i++ {
		data, err := r.Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.JSONEq(t, testutil.SamplePlaces, string(data))
	}
	assert.Equal(t, 1, server.Requests(testutil.PlacesName))

	_, err := os.Stat(filepath.Join(cacheDir, CacheFileName(url)))
	assert.NoError(t, err)
}

func TestRouter_FetchHTTPCacheExpired(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetDataset(testutil.PlacesName, []byte(testutil.SamplePlaces))

	cacheDir := t.TempDir()
	r := New(Options{CacheDir: cacheDir, CacheTTL: time.Minute})
	url := server.DataURL(testutil.PlacesName)

	_, err := r.Fetch(context.Background(), url)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(cacheDir, CacheFileName(url)), old, old))

	_, err = r.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 2, server.Requests(testutil.PlacesName))
}

func TestRouter_FetchWebSocket(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetDataset("people", []byte(testutil.SamplePeople))

	r := New(Options{Timeout: 2 * time.Second})
	data, err := r.Fetch(context.Background(), server.WSURL("people"))
	require.NoError(t, err)
	assert.JSONEq(t, testutil.SamplePeople, string(data))
}

func TestCacheFileName(t *testing.T) {
	assert.Equal(t, "example.com_data_places.json", CacheFileName("https://example.com/data/places.json"))
	assert.Equal(t, "example.com_ws_v_1_topics_people", CacheFileName("https://example.com/ws?v=1&topics=people"))
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string][]byte{"a": []byte("1")})

	data, err := m.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	_, err = m.Fetch(context.Background(), "b")
	assert.True(t, eris.Is(err, ErrNotFound))

	boom := eris.New("boom")
	m.Fail("a", boom)
	_, err = m.Fetch(context.Background(), "a")
	assert.Equal(t, boom, err)

	m.Set("a", []byte("2"))
	data, err = m.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))
	assert.Equal(t, 3, m.Calls("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx, "a")
	assert.Error(t, err)
	assert.Equal(t, 3, m.Calls("a"))
}
