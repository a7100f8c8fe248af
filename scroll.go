package elastic

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scroller is the search capability a ScrollIterator drives.
// *Client implements it.
//
//go:generate mockery --name=Scroller --output=mocks --outpkg=mocks --filename=scroller.go
type Scroller interface {
	// Search runs the initial query and opens the cursor.
	Search(ctx context.Context, req *SearchRequest, opts ...RequestOption) (*Response, error)

	// Scroll advances the cursor.
	Scroll(ctx context.Context, req *ScrollRequest, opts ...RequestOption) (*Response, error)

	// ClearScroll releases the cursor.
	ClearScroll(ctx context.Context, req *ClearScrollRequest, opts ...RequestOption) (*Response, error)
}

var _ Scroller = (*Client)(nil)

// ScrollParams configures the initial query of a scroll.
type ScrollParams struct {
	Index []string `validate:"required,min=1,dive,required"`

	// Body is the query DSL sent with the initial search only.
	Body any `validate:"-"`

	// Size is the number of hits per page.
	Size int `validate:"gte=0"`

	// Scroll is how long the server keeps the cursor alive between
	// pages, e.g. "5m". Defaults to 5m.
	Scroll string

	// OpaqueID tags every request of the scroll. A random id is used
	// when empty.
	OpaqueID string
}

// ScrollOption configures a ScrollIterator.
type ScrollOption func(*ScrollIterator)

// WithScrollLogger sets the logger used to report cursor release failures.
func WithScrollLogger(logger zerolog.Logger) ScrollOption {
	return func(it *ScrollIterator) {
		it.logger = logger
	}
}

type scrollState int

const (
	scrollInitial scrollState = iota
	scrollFetched
	scrollExhausted
)

// ScrollIterator pages through a scroll cursor. It is single-pass: once
// a page comes back empty the cursor is cleared and the iterator stays
// exhausted. Callers that stop early must call Close to release the
// cursor. A ScrollIterator is not safe for concurrent use.
type ScrollIterator struct {
	client   Scroller
	params   ScrollParams
	logger   zerolog.Logger
	state    scrollState
	scrollID string
}

// NewScrollIterator creates an iterator; no request is sent until the
// first call to Next.
func NewScrollIterator(client Scroller, params ScrollParams, opts ...ScrollOption) (*ScrollIterator, error) {
	if client == nil {
		return nil, fmt.Errorf("elastic: scroll client must be provided")
	}
	if params.Scroll == "" {
		params.Scroll = defaultScrollTTL
	}
	if err := validate.Struct(&params); err != nil {
		return nil, newValidationError("scroll parameters", err)
	}
	if params.OpaqueID == "" {
		params.OpaqueID = uuid.NewString()
	}

	it := &ScrollIterator{
		client: client,
		params: params,
		logger: zerolog.Nop(),
	}
	if c, ok := client.(*Client); ok {
		it.logger = c.logger
	}

	for _, opt := range opts {
		opt(it)
	}

	return it, nil
}

// NewScroll creates a ScrollIterator bound to the client.
func (c *Client) NewScroll(params ScrollParams, opts ...ScrollOption) (*ScrollIterator, error) {
	return NewScrollIterator(c, params, opts...)
}

// ScrollID returns the most recent cursor token.
func (it *ScrollIterator) ScrollID() string {
	return it.scrollID
}

// Next fetches the next non-empty page. It returns ErrScrollDone once the
// server reports no further hits; the cursor has been released by then.
//
// A failed advance leaves the iterator where it was, so Next may be
// retried; give up with Close.
func (it *ScrollIterator) Next(ctx context.Context) (*Response, error) {
	var (
		resp *Response
		err  error
	)

	switch it.state {
	case scrollExhausted:
		return nil, ErrScrollDone
	case scrollInitial:
		resp, err = it.client.Search(ctx, &SearchRequest{
			Index:  it.params.Index,
			Body:   it.params.Body,
			Size:   it.params.Size,
			Scroll: it.params.Scroll,
		}, WithOpaqueID(it.params.OpaqueID))
		if err != nil {
			// No cursor was opened.
			it.state = scrollExhausted
			return nil, err
		}
	case scrollFetched:
		resp, err = it.client.Scroll(ctx, &ScrollRequest{
			ScrollID: it.scrollID,
			Scroll:   it.params.Scroll,
		}, WithOpaqueID(it.params.OpaqueID))
		if err != nil {
			return nil, err
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("elastic: scroll client returned no response")
	}

	if id, ok := scrollIDOf(resp); ok {
		it.scrollID = id
	}
	it.state = scrollFetched

	n, err := hitCount(resp)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		it.finish(ctx)
		return nil, ErrScrollDone
	}

	return resp, nil
}

// Pages returns the remaining pages as a sequence. Pages are fetched
// lazily as the sequence is ranged over. Breaking out of the loop does not
// release the cursor; call Close.
func (it *ScrollIterator) Pages(ctx context.Context) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := it.Next(ctx)
			if errors.Is(err, ErrScrollDone) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// Hits flattens the remaining pages into individual hits.
func (it *ScrollIterator) Hits(ctx context.Context) iter.Seq2[Hit, error] {
	return func(yield func(Hit, error) bool) {
		for page, err := range it.Pages(ctx) {
			if err != nil {
				yield(Hit{}, err)
				return
			}

			var result SearchResult
			if err := page.AsObject(&result); err != nil {
				yield(Hit{}, err)
				return
			}
			for _, hit := range result.Hits.Hits {
				if !yield(hit, nil) {
					return
				}
			}
		}
	}
}

// Count drains the iterator and returns the number of non-empty pages.
func (it *ScrollIterator) Count(ctx context.Context) (int, error) {
	count := 0
	for _, err := range it.Pages(ctx) {
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Close releases the cursor if it is still open. It is safe to call more
// than once and after the iterator is exhausted.
func (it *ScrollIterator) Close(ctx context.Context) {
	switch it.state {
	case scrollInitial:
		it.state = scrollExhausted
	case scrollFetched:
		it.finish(ctx)
	}
}

// finish clears the cursor exactly once. Failures are logged and dropped
// so they never replace the iteration result.
func (it *ScrollIterator) finish(ctx context.Context) {
	it.state = scrollExhausted

	if it.scrollID == "" {
		it.logger.Debug().Msg("scroll finished without a cursor to clear")
		return
	}

	// The caller's context may already be cancelled; the cursor should
	// still be released.
	_, err := it.client.ClearScroll(context.WithoutCancel(ctx), &ClearScrollRequest{
		ScrollID: []string{it.scrollID},
	}, WithOpaqueID(it.params.OpaqueID))
	if err != nil {
		it.logger.Warn().Err(err).
			Str("scroll_id", it.scrollID).
			Str("opaque_id", it.params.OpaqueID).
			Msg("clearing scroll failed")
	}
}

func scrollIDOf(resp *Response) (string, bool) {
	v, err := resp.lookup("_scroll_id")
	if err != nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// hitCount returns the number of hits in a page. A page without a hits
// array counts as empty; an undecodable page is an error.
func hitCount(resp *Response) (int, error) {
	v, err := resp.lookup("hits", "hits")
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return 0, err
		}
		return 0, nil
	}
	hits, _ := v.([]any)
	return len(hits), nil
}
