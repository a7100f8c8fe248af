package elastic

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// CommonParams are the query parameters accepted by every endpoint.
type CommonParams struct {
	Pretty     bool     `schema:"pretty,omitempty"`
	Human      bool     `schema:"human,omitempty"`
	ErrorTrace bool     `schema:"error_trace,omitempty"`
	FilterPath []string `schema:"filter_path,omitempty"`
}

// SearchRequest configures a search call.
type SearchRequest struct {
	Index []string `schema:"-" validate:"dive,required"`

	// Body is the query DSL; any JSON-encodable value or raw JSON bytes.
	Body any `schema:"-" validate:"-"`

	Size              int      `schema:"size,omitempty" validate:"gte=0"`
	From              int      `schema:"from,omitempty" validate:"gte=0"`
	Scroll            string   `schema:"scroll,omitempty"`
	Sort              []string `schema:"sort,omitempty"`
	TrackTotalHits    bool     `schema:"track_total_hits,omitempty"`
	IgnoreUnavailable bool     `schema:"ignore_unavailable,omitempty"`

	CommonParams
}

// ScrollRequest advances a scroll cursor.
type ScrollRequest struct {
	ScrollID string `schema:"-" validate:"required"`
	Scroll   string `schema:"-"`

	RestTotalHitsAsInt bool `schema:"rest_total_hits_as_int,omitempty"`

	CommonParams
}

// ClearScrollRequest releases one or more scroll cursors.
type ClearScrollRequest struct {
	ScrollID []string `schema:"-" validate:"required,min=1,dive,required"`

	CommonParams
}

// DanglingIndexParams configures the dangling index import and delete calls.
type DanglingIndexParams struct {
	AcceptDataLoss bool   `schema:"accept_data_loss,omitempty"`
	Timeout        string `schema:"timeout,omitempty"`
	MasterTimeout  string `schema:"master_timeout,omitempty"`

	CommonParams
}

// TotalHits is the hits.total object of a search response.
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// Hit is a single search hit.
type Hit struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
	Sort   []any          `json:"sort,omitempty"`
}

// SearchResult is the typed form of a search or scroll response,
// obtained with Response.AsObject.
type SearchResult struct {
	ScrollID string `json:"_scroll_id"`
	Took     int    `json:"took"`
	TimedOut bool   `json:"timed_out"`
	Hits     struct {
		Total    TotalHits `json:"total"`
		MaxScore *float64  `json:"max_score"`
		Hits     []Hit     `json:"hits"`
	} `json:"hits"`
}

// InfoResult is the typed form of the root endpoint response.
type InfoResult struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	ClusterUUID string `json:"cluster_uuid"`
	Version     struct {
		Number        string `json:"number"`
		BuildFlavor   string `json:"build_flavor"`
		LuceneVersion string `json:"lucene_version"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	queryEncoder = newQueryEncoder()
)

func newQueryEncoder() *schema.Encoder {
	enc := schema.NewEncoder()
	// The API takes lists as comma-separated values.
	enc.RegisterEncoder([]string{}, func(v reflect.Value) string {
		return strings.Join(v.Interface().([]string), ",")
	})
	return enc
}

// encodeQuery turns a parameter struct into a query string. Fields tagged
// schema:"-" travel in the path or body instead.
func encodeQuery(params any) (url.Values, error) {
	values := url.Values{}
	if err := queryEncoder.Encode(params, values); err != nil {
		return nil, err
	}
	return values, nil
}

// joinIndices builds the index segment of a path.
func joinIndices(indices []string) string {
	escaped := make([]string, len(indices))
	for i, index := range indices {
		escaped[i] = url.PathEscape(index)
	}
	return strings.Join(escaped, ",")
}
