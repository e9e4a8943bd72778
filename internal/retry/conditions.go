package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// IsTransient reports whether an error is worth retrying: network-level
// failures and upstream overload responses. Context cancellation and
// caller mistakes are final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, util.ErrUpstreamUnavail) {
		return true
	}

	var ue *util.UpstreamError
	if errors.As(err, &ue) {
		switch ue.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	return isNetworkError(err)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || urlErr.Temporary()
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}

// TransientOnly is a ShouldRetryFunc wrapping IsTransient.
func TransientOnly() ShouldRetryFunc {
	return IsTransient
}

// ExceptFor returns a ShouldRetryFunc that refuses to retry the listed
// errors and defers to next for everything else. The cache layer uses it
// to keep misses from burning the retry budget.
func ExceptFor(next ShouldRetryFunc, final ...error) ShouldRetryFunc {
	return func(err error) bool {
		for _, f := range final {
			if errors.Is(err, f) {
				return false
			}
		}
		if next == nil {
			return true
		}
		return next(err)
	}
}
