package modeler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// expiryMargin is subtracted from the token lifetime, so that a token close
// to its expiry is never used for an upload that may outlive it.
const expiryMargin = 60 * time.Second

type tokenSource struct {
	httpClient   *http.Client
	tokenUrl     string
	clientId     string
	clientSecret string
	audience     string

	now func() time.Time

	mu         sync.Mutex
	token      string
	expiresAt  time.Time
	refreshing chan struct{}
}

// Token returns a cached access token, refreshing it when it is within the
// expiry margin. Concurrent callers share one refresh request.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	for {
		ts.mu.Lock()
		if ts.token != "" && ts.now().Add(expiryMargin).Before(ts.expiresAt) {
			token := ts.token
			ts.mu.Unlock()
			return token, nil
		}

		if ts.refreshing == nil {
			done := make(chan struct{})
			ts.refreshing = done
			ts.mu.Unlock()

			token, expiresIn, err := ts.fetch(ctx)

			ts.mu.Lock()
			if err == nil {
				ts.token = token
				ts.expiresAt = ts.now().Add(expiresIn)
			}
			ts.refreshing = nil
			ts.mu.Unlock()

			close(done)

			if err != nil {
				return "", err
			}
			return token, nil
		}

		done := ts.refreshing
		ts.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (ts *tokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	values.Set("client_id", ts.clientId)
	values.Set("client_secret", ts.clientSecret)
	if ts.audience != "" {
		values.Set("audience", ts.audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenUrl, strings.NewReader(values.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %v", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, AuthenticationError{Detail: err.Error()}
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(res.Body)
		return "", 0, AuthenticationError{Detail: fmt.Sprintf("HTTP %d: %s", res.StatusCode, string(b))}
	}

	var resBody struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return "", 0, AuthenticationError{Detail: fmt.Sprintf("failed to decode token response body: %v", err)}
	}
	if resBody.AccessToken == "" {
		return "", 0, AuthenticationError{Detail: "token response contains no access token"}
	}

	return resBody.AccessToken, time.Duration(resBody.ExpiresIn) * time.Second, nil
}
