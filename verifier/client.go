package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRejected reports a definitive 401: the issuing service saw
	// the credential and refused it.
	ErrRejected = errors.New("credential rejected")
	// ErrUnreachable reports that no verdict was obtained: transport
	// failure, timeout, or a 5xx from the issuing service.
	ErrUnreachable = errors.New("verifier unreachable")
)

// Client calls the issuing service's verification endpoint. The zero
// value is not usable; construct with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a verification client. The timeout should match
// the issuing service's verify budget; it defaults to two seconds.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("verifier: base URL is required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Verify presents an access credential to the issuing service.
//
// Outcomes are three-way: (principal, nil) for a valid credential,
// ErrRejected (with the wire reason attached) for a definitive no, and
// ErrUnreachable when no verdict was obtained. Callers deciding to let
// a request through must treat only the first as authenticated, and
// must not treat ErrUnreachable as ErrRejected in logs or responses.
func (c *Client) Verify(ctx context.Context, accessToken string) (*Principal, error) {
	body, err := json.Marshal(verifyRequest{Token: accessToken})
	if err != nil {
		return nil, fmt.Errorf("verifier: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("verifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var vr VerifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrUnreachable, err)
		}
		if !vr.Valid || vr.Principal == nil {
			return nil, fmt.Errorf("%w: malformed accept response", ErrUnreachable)
		}
		return vr.Principal, nil

	case resp.StatusCode == http.StatusUnauthorized:
		var vr VerifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil || vr.Reason == "" {
			return nil, ErrRejected
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, vr.Reason)

	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
}
