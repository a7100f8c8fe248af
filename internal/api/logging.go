package api

import (
	"net/http"
	"time"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// RoundTripLogger reports elastictransport round trips to zerolog.
type RoundTripLogger struct {
	Logger zerolog.Logger
}

var _ elastictransport.Logger = (*RoundTripLogger)(nil)

// LogRoundTrip logs one request/response exchange. Failed exchanges and
// error statuses are logged at warn, everything else at debug.
func (l *RoundTripLogger) LogRoundTrip(req *http.Request, res *http.Response, err error, start time.Time, dur time.Duration) error {
	ev := l.Logger.Debug()
	if err != nil || (res != nil && res.StatusCode >= http.StatusBadRequest) {
		ev = l.Logger.Warn().Err(err)
	}

	ev = ev.Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Time("start", start).
		Dur("duration", dur)
	if res != nil {
		ev = ev.Int("status", res.StatusCode)
	}
	ev.Msg("elasticsearch round trip")
	return nil
}

// RequestBodyEnabled reports false; bodies are never logged.
func (l *RoundTripLogger) RequestBodyEnabled() bool { return false }

// ResponseBodyEnabled reports false; bodies are never logged.
func (l *RoundTripLogger) ResponseBodyEnabled() bool { return false }

// RetryLogger adapts zerolog to retryablehttp's leveled logger.
type RetryLogger struct {
	Logger zerolog.Logger
}

var _ retryablehttp.LeveledLogger = (*RetryLogger)(nil)

func (l *RetryLogger) Error(msg string, keysAndValues ...any) {
	l.Logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *RetryLogger) Info(msg string, keysAndValues ...any) {
	l.Logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l *RetryLogger) Debug(msg string, keysAndValues ...any) {
	l.Logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *RetryLogger) Warn(msg string, keysAndValues ...any) {
	l.Logger.Warn().Fields(keysAndValues).Msg(msg)
}

// NewRetryableRoundTripper returns an http.RoundTripper that retries failed
// requests up to maxRetries times using retryablehttp's backoff policy.
func NewRetryableRoundTripper(base http.RoundTripper, maxRetries int, logger zerolog.Logger) http.RoundTripper {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.Logger = &RetryLogger{Logger: logger}
	// Hand the final response back so status classification stays with the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if base != nil {
		rc.HTTPClient.Transport = base
	}
	return &retryablehttp.RoundTripper{Client: rc}
}
