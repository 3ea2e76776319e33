package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// mapError converts a go-github error into a *domain.NetworkError.
// Context cancellation stays reachable through errors.Is.
func mapError(resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}

	var (
		errResp   *gh.ErrorResponse
		rateErr   *gh.RateLimitError
		abuseErr  *gh.AbuseRateLimitError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		urlErr    *url.Error
	)

	switch {
	case errors.As(err, &rateErr):
		return domain.ServerError(statusOf(rateErr.Response, http.StatusForbidden), err)
	case errors.As(err, &abuseErr):
		return domain.ServerError(statusOf(abuseErr.Response, http.StatusForbidden), err)
	case errors.As(err, &errResp):
		return domain.ServerError(statusOf(errResp.Response, 0), err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &domain.NetworkError{Kind: domain.NetDecoding, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &domain.NetworkError{Kind: domain.NetTransport, Err: err}
	case errors.As(err, &urlErr):
		return &domain.NetworkError{Kind: domain.NetTransport, Err: err}
	}

	// go-github only surfaces non-2xx statuses through ErrorResponse, but a
	// response is still the best evidence of a server failure.
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		return domain.ServerError(resp.StatusCode, err)
	}
	return &domain.NetworkError{Kind: domain.NetTransport, Err: err}
}

func statusOf(resp *http.Response, fallback int) int {
	if resp == nil {
		return fallback
	}
	return resp.StatusCode
}
