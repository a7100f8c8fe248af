// Package elastic provides a Go client for the Elasticsearch REST API.
//
// # Features
//
//   - Node pooling and retries through elastic-transport-go
//   - Product check on every successful response
//   - Read-only responses decoded lazily, exactly once
//   - Scroll cursors as Go 1.23+ iterators
//   - Typed errors for precise error handling
//   - Functional options for flexible configuration
//
// # Quick Start
//
//	client, err := elastic.NewClient(
//	    elastic.WithAddresses("https://localhost:9200"),
//	    elastic.WithAPIKey(apiKey),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Info(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	version, _ := resp.Path("version", "number")
//	fmt.Println(version)
//
// # Responses
//
// A Response can be read as a map, projected onto a struct, or taken as
// the raw body. Projections share one decode of the body:
//
//	m, err := resp.AsMap()
//
//	var result elastic.SearchResult
//	err = resp.AsObject(&result)
//
//	raw := resp.AsString()
//
// Responses are read-only; Set and Unset always fail with
// *ArrayAccessError.
//
// # Error Handling
//
// 4xx and 5xx responses are returned as *ClientResponseError and
// *ServerResponseError, which carry the Response. Disable this with
// WithResponseErrors(false) and inspect Response.AsBool instead. A
// successful response without the X-Elastic-Product header always fails
// with *ProductCheckError.
//
//	_, err := client.Search(ctx, req)
//	var clientErr *elastic.ClientResponseError
//	if errors.As(err, &clientErr) {
//	    fmt.Println(clientErr.StatusCode, clientErr.Reason)
//	}
//
// # Scrolling
//
// ScrollIterator pages through a scroll cursor and clears it after the
// last page:
//
//	it, err := client.NewScroll(elastic.ScrollParams{
//	    Index:  []string{"logs"},
//	    Body:   map[string]any{"query": map[string]any{"match_all": map[string]any{}}},
//	    Size:   1000,
//	    Scroll: "5m",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer it.Close(ctx)
//
//	for page, err := range it.Pages(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    hits, _ := page.Path("hits", "hits")
//	    fmt.Println(len(hits.([]any)))
//	}
package elastic
