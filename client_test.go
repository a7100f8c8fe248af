package elastic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-elastic"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc, opts ...elastic.ClientOption) *elastic.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]elastic.ClientOption{elastic.WithAddresses(server.URL)}, opts...)
	client, err := elastic.NewClient(opts...)
	require.NoError(t, err)

	return client
}

// writeJSON answers like an Elasticsearch node would.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(elastic.ProductHeader, elastic.ProductName)
	w.WriteHeader(status)
	_, err := io.WriteString(w, body)
	assert.NoError(t, err)
}

func TestNewClient(t *testing.T) {
	t.Run("success with required options", func(t *testing.T) {
		client, err := elastic.NewClient(
			elastic.WithAddresses("https://localhost:9200"),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.NotNil(t, client.DanglingIndices)
	})

	t.Run("error without addresses", func(t *testing.T) {
		_, err := elastic.NewClient(elastic.WithAPIKey("key"))
		require.Error(t, err)
		assert.ErrorIs(t, err, elastic.ErrNoAddresses)
	})

	t.Run("error with invalid address", func(t *testing.T) {
		_, err := elastic.NewClient(elastic.WithAddresses("localhost:9200"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "localhost:9200")
	})

	t.Run("success with all options", func(t *testing.T) {
		client, err := elastic.NewClient(
			elastic.WithAddresses("https://es1:9200", "https://es2:9200"),
			elastic.WithBasicAuth("elastic", "changeme"),
			elastic.WithUserAgent("test-agent/1.0"),
			elastic.WithTimeout(60*time.Second),
			elastic.WithMaxRetries(5),
			elastic.WithRetryableHTTP(),
			elastic.WithResponseErrors(false),
			elastic.WithMetaHeader(false),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("success with custom HTTP transport", func(t *testing.T) {
		client, err := elastic.NewClient(
			elastic.WithAddresses("https://localhost:9200"),
			elastic.WithHTTPTransport(http.DefaultTransport),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestClient_Info(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Contains(t, r.Header.Get("User-Agent"), "go-elastic/")
			assert.Contains(t, r.Header.Get("X-Elastic-Client-Meta"), "go=")
			writeJSON(t, w, 200, `{"name":"node-1","cluster_name":"docker","version":{"number":"8.15.0"},"tagline":"You Know, for Search"}`)
		})

		resp, err := client.Info(context.Background())
		require.NoError(t, err)

		var info elastic.InfoResult
		require.NoError(t, resp.AsObject(&info))
		assert.Equal(t, "docker", info.ClusterName)
		assert.Equal(t, "8.15.0", info.Version.Number)
	})

	t.Run("basic auth and user agent", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "elastic", user)
			assert.Equal(t, "changeme", pass)
			assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "req-1", r.Header.Get("X-Opaque-Id"))
			writeJSON(t, w, 200, `{}`)
		}, elastic.WithBasicAuth("elastic", "changeme"), elastic.WithUserAgent("test-agent/1.0"))

		_, err := client.Info(context.Background(), elastic.WithOpaqueID("req-1"))
		require.NoError(t, err)
	})

	t.Run("api key", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("Authorization"), "c2VjcmV0")
			writeJSON(t, w, 200, `{}`)
		}, elastic.WithAPIKey("c2VjcmV0"))

		_, err := client.Info(context.Background())
		require.NoError(t, err)
	})

	t.Run("no credentials", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(t, w, 200, `{}`)
		})

		_, err := client.Info(context.Background())
		require.NoError(t, err)
	})

	t.Run("unknown product", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"tagline":"The OpenSearch Project"}`)
		})

		_, err := client.Info(context.Background())
		var productErr *elastic.ProductCheckError
		require.ErrorAs(t, err, &productErr)
	})
}

func TestClient_ResponseErrors(t *testing.T) {
	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 404, `{"error":{"type":"index_not_found_exception","reason":"no such index [nope]"},"status":404}`)
	}

	t.Run("enabled", func(t *testing.T) {
		client := setupTestServer(t, notFound)

		_, err := client.Search(context.Background(), &elastic.SearchRequest{Index: []string{"nope"}})
		var clientErr *elastic.ClientResponseError
		require.ErrorAs(t, err, &clientErr)
		assert.Equal(t, 404, clientErr.StatusCode)
		assert.Equal(t, "index_not_found_exception", clientErr.Type)
		assert.Equal(t, 404, clientErr.Response.StatusCode())
	})

	t.Run("disabled", func(t *testing.T) {
		client := setupTestServer(t, notFound, elastic.WithResponseErrors(false))

		resp, err := client.Search(context.Background(), &elastic.SearchRequest{Index: []string{"nope"}})
		require.NoError(t, err)
		assert.False(t, resp.AsBool())
		assert.Equal(t, 404, resp.StatusCode())
	})

	t.Run("server error", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, 500, `{"error":{"type":"exception","reason":"boom"}}`)
		})

		_, err := client.Info(context.Background())
		var serverErr *elastic.ServerResponseError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, "boom", serverErr.Reason)
	})

	t.Run("server error through retryablehttp", func(t *testing.T) {
		var calls atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(t, w, 500, `{}`)
		}, elastic.WithRetryableHTTP(), elastic.WithMaxRetries(0))

		_, err := client.Info(context.Background())
		var serverErr *elastic.ServerResponseError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Ping(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			writeJSON(t, w, 200, "")
		})

		ok, err := client.Ping(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unavailable", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, 401, "")
		})

		ok, err := client.Ping(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("path, query and body", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/logs,metrics/_search", r.URL.Path)
			assert.Equal(t, "10", r.URL.Query().Get("size"))
			assert.Equal(t, "1m", r.URL.Query().Get("scroll"))
			assert.Equal(t, "hits.hits._id,_scroll_id", r.URL.Query().Get("filter_path"))
			assert.False(t, r.URL.Query().Has("from"))
			assert.False(t, r.URL.Query().Has("pretty"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body, "query")

			writeJSON(t, w, 200, `{"_scroll_id":"c1","hits":{"hits":[]}}`)
		})

		resp, err := client.Search(context.Background(), &elastic.SearchRequest{
			Index:  []string{"logs", "metrics"},
			Body:   map[string]any{"query": map[string]any{"match_all": map[string]any{}}},
			Size:   10,
			Scroll: "1m",
			CommonParams: elastic.CommonParams{
				FilterPath: []string{"hits.hits._id", "_scroll_id"},
			},
		})
		require.NoError(t, err)
		id, err := resp.Get("_scroll_id")
		require.NoError(t, err)
		assert.Equal(t, "c1", id)
	})

	t.Run("all indices with raw body", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/_search", r.URL.Path)
			raw, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"size":0}`, string(raw))
			writeJSON(t, w, 200, `{}`)
		})

		_, err := client.Search(context.Background(), &elastic.SearchRequest{Body: []byte(`{"size":0}`)})
		require.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		})

		_, err := client.Search(context.Background(), &elastic.SearchRequest{Size: -1})
		var validationErr *elastic.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "Size")
	})
}

func TestClient_ScrollAndClear(t *testing.T) {
	t.Run("scroll", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/_search/scroll", r.URL.Path)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"scroll_id": "c1", "scroll": "5m"}, body)

			writeJSON(t, w, 200, `{"_scroll_id":"c2","hits":{"hits":[]}}`)
		})

		_, err := client.Scroll(context.Background(), &elastic.ScrollRequest{ScrollID: "c1", Scroll: "5m"})
		require.NoError(t, err)
	})

	t.Run("clear", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/_search/scroll", r.URL.Path)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"scroll_id": []any{"c1", "c2"}}, body)

			writeJSON(t, w, 200, `{"succeeded":true,"num_freed":2}`)
		})

		resp, err := client.ClearScroll(context.Background(), &elastic.ClearScrollRequest{ScrollID: []string{"c1", "c2"}})
		require.NoError(t, err)
		freed, err := resp.Get("num_freed")
		require.NoError(t, err)
		assert.Equal(t, json.Number("2"), freed)
	})

	t.Run("missing parameters", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		})

		var missing *elastic.MissingParameterError
		_, err := client.Scroll(context.Background(), nil)
		require.ErrorAs(t, err, &missing)

		_, err = client.ClearScroll(context.Background(), nil)
		require.ErrorAs(t, err, &missing)

		var validationErr *elastic.ValidationError
		_, err = client.Scroll(context.Background(), &elastic.ScrollRequest{})
		require.ErrorAs(t, err, &validationErr)

		_, err = client.ClearScroll(context.Background(), &elastic.ClearScrollRequest{})
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestClient_ScrollEndToEnd(t *testing.T) {
	var clears atomic.Int32
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		opaque := r.Header.Get("X-Opaque-Id")
		assert.Equal(t, "export-1", opaque)

		switch {
		case r.URL.Path == "/logs/_search":
			assert.Equal(t, "2m", r.URL.Query().Get("scroll"))
			writeJSON(t, w, 200, `{"_scroll_id":"c1","hits":{"total":{"value":3,"relation":"eq"},"hits":[{"_id":"1"},{"_id":"2"}]}}`)
		case r.URL.Path == "/_search/scroll" && r.Method == http.MethodPost:
			var body struct {
				ScrollID string `json:"scroll_id"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			switch body.ScrollID {
			case "c1":
				writeJSON(t, w, 200, `{"_scroll_id":"c2","hits":{"hits":[{"_id":"3"}]}}`)
			case "c2":
				writeJSON(t, w, 200, `{"_scroll_id":"c2","hits":{"hits":[]}}`)
			default:
				t.Errorf("unexpected scroll id %q", body.ScrollID)
				writeJSON(t, w, 404, `{}`)
			}
		case r.URL.Path == "/_search/scroll" && r.Method == http.MethodDelete:
			clears.Add(1)
			writeJSON(t, w, 200, `{"succeeded":true,"num_freed":1}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	it, err := client.NewScroll(elastic.ScrollParams{
		Index:    []string{"logs"},
		Size:     2,
		Scroll:   "2m",
		OpaqueID: "export-1",
	})
	require.NoError(t, err)
	defer it.Close(context.Background())

	ids, err := elastic.Collect(elastic.Map(it.Hits(context.Background()), func(h elastic.Hit) string { return h.ID }))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, int32(1), clears.Load())
}

func TestClient_Perform(t *testing.T) {
	t.Run("sync", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/_cat/indices", r.URL.Path)
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			writeJSON(t, w, 200, `[{"index":"logs"}]`)
		})

		req, err := http.NewRequest(http.MethodGet, "/_cat/indices?format=json", nil)
		require.NoError(t, err)

		resp, err := client.Perform(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, `[{"index":"logs"}]`, resp.AsString())
	})

	t.Run("caller request left untouched", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Equal(t, "trace-1", r.Header.Get("X-Opaque-Id"))
			writeJSON(t, w, 200, `{}`)
		})

		req, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)
		req.Header.Set("X-Opaque-Id", "trace-1")

		_, err = client.Perform(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.Header{"X-Opaque-Id": {"trace-1"}}, req.Header)
		assert.Equal(t, "/", req.URL.String())
	})

	t.Run("async does not raise on error status", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, 500, `{"error":{"type":"exception","reason":"boom"}}`)
		})

		req, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)

		future := client.PerformAsync(context.Background(), req)
		resp, err := future.Wait(context.Background())
		require.NoError(t, err)
		assert.False(t, resp.AsBool())
		assert.Equal(t, 500, resp.StatusCode())

		select {
		case <-future.Done():
		default:
			t.Error("future should be done after Wait")
		}
	})

	t.Run("async product check", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
		})

		req, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)

		_, err = client.PerformAsync(context.Background(), req).Wait(context.Background())
		var productErr *elastic.ProductCheckError
		require.ErrorAs(t, err, &productErr)
	})

	t.Run("wait honours context", func(t *testing.T) {
		release := make(chan struct{})
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			<-release
			writeJSON(t, w, 200, `{}`)
		})
		defer close(release)

		req, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)

		future := client.PerformAsync(context.Background(), req)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = future.Wait(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
