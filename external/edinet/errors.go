package edinet

import (
	stderrors "errors"

	crerr "github.com/cockroachdb/errors"
)

// Failure sentinels for the disclosure API. Callers match with errors.Is;
// the retry machine only ever replays rate-limit and transient-network
// failures.
var (
	ErrAuth              = crerr.New("edinet: authentication rejected")
	ErrRateLimit         = crerr.New("edinet: rate limited")
	ErrTransientNetwork  = crerr.New("edinet: transient network failure")
	ErrNotFound          = crerr.New("edinet: document not found")
	ErrMalformedResponse = crerr.New("edinet: malformed response")
	ErrRetriesExhausted  = crerr.New("edinet: retries exhausted")
)

// Kind is the classified failure category of a client error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAuth
	KindRateLimit
	KindTransientNetwork
	KindNotFound
	KindMalformedResponse
	KindRetriesExhausted
)

func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case stderrors.Is(err, ErrRetriesExhausted):
		return KindRetriesExhausted
	case stderrors.Is(err, ErrAuth):
		return KindAuth
	case stderrors.Is(err, ErrRateLimit):
		return KindRateLimit
	case stderrors.Is(err, ErrTransientNetwork):
		return KindTransientNetwork
	case stderrors.Is(err, ErrNotFound):
		return KindNotFound
	case stderrors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	default:
		return KindUnknown
	}
}

func retryableKind(kind Kind) bool {
	return kind == KindRateLimit || kind == KindTransientNetwork
}
