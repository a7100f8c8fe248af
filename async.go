package elastic

import (
	"context"
	"net/http"
)

// Future is the pending result of PerformAsync.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

// PerformAsync sends req in the background. Async responses never fail on
// 4xx or 5xx statuses; inspect Response.AsBool instead. Transport failures
// and the product check are still reported by Wait.
func (c *Client) PerformAsync(ctx context.Context, req *http.Request) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		raw, err := c.transport.Perform(req.WithContext(ctx))
		if err != nil {
			f.err = err
			return
		}
		f.resp, f.err = newResponse(raw.StatusCode, raw.Headers, raw.Body, false)
	}()

	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the response arrives or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
