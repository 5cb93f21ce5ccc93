package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/putdotio/go-putio/putio"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"golang.org/x/oauth2"
)

var (
	putioAPIBase = "https://api.put.io/v2"

	putioOAuthEndpoint = oauth2.Endpoint{
		AuthURL:  "https://api.put.io/v2/oauth2/authenticate",
		TokenURL: "https://api.put.io/v2/oauth2/access_token",
	}

	// swappable for tests
	accountInfoFunc = fetchAccountUsername
)

func fetchAccountUsername(ctx context.Context, accessToken string) (string, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := putio.NewClient(oauth2.NewClient(ctx, tokenSource))

	info, err := client.Account.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Username, nil
}

// VerifyToken confirms a token against the account-info endpoint. Any
// failure, auth error or malformed response alike, yields unverified with
// no distinguishing detail.
func VerifyToken(ctx context.Context, accessToken string) (string, bool) {
	if accessToken == "" {
		return "", false
	}

	username, err := accountInfoFunc(ctx, accessToken)
	if err != nil || username == "" {
		log.Debug(fmt.Sprintf("Token verification failed: %v", err))
		return "", false
	}
	return username, true
}

// AcquireTokenOAuth runs the browser-based flow: it generates an opaque
// state, points the user at the authorization URL, and polls the relay
// until the token shows up or the budget runs out.
func AcquireTokenOAuth(ctx context.Context, appConfig AppConfig) (string, error) {
	state := uuid.NewString()

	oauthConfig := &oauth2.Config{
		ClientID:    appConfig.ClientID,
		Endpoint:    putioOAuthEndpoint,
		RedirectURL: strings.TrimSuffix(appConfig.RelayURL, "/") + "/oauth-callback",
	}
	authURL := oauthConfig.AuthCodeURL(state)

	fmt.Printf("Visit the following URL to authorize:\n\n  %s\n\n", authURL)
	if err := open.Run(authURL); err != nil {
		log.Debug(fmt.Sprintf("Couldn't open a browser: %v", err))
	}

	return pollForToken(ctx, appConfig, state)
}

// pollForToken asks the relay for the token at a fixed retry period. 404
// means not yet available; any other non-200 status is fatal.
func pollForToken(ctx context.Context, appConfig AppConfig, state string) (string, error) {
	timeout := time.Duration(appConfig.PollTimeout) * time.Second
	period := time.Duration(appConfig.PollPeriod) * time.Second
	deadline := time.Now().Add(timeout)

	endpoint := fmt.Sprintf("%s/get-access-token?state=%s",
		strings.TrimSuffix(appConfig.RelayURL, "/"), url.QueryEscape(state))

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			return strings.TrimSpace(string(body)), nil
		case http.StatusNotFound:
			// not there yet, keep polling
		default:
			return "", &AuthError{Reason: fmt.Sprintf("relay answered with status %d", resp.StatusCode)}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(period):
		}
	}

	return "", &PollTimeoutError{Budget: timeout}
}

// AcquireTokenCredentials exchanges a username and password for a token.
// With app client credentials configured the exchange goes straight to the
// API's credential-grant endpoint; otherwise the relay does it for us.
func AcquireTokenCredentials(ctx context.Context, appConfig AppConfig, username, password string) (string, error) {
	if appConfig.ClientID != "" && appConfig.ClientSecret != "" {
		return createTokenDirect(ctx, appConfig, username, password)
	}
	return createTokenViaRelay(ctx, appConfig, username, password)
}

func createTokenDirect(ctx context.Context, appConfig AppConfig, username, password string) (string, error) {
	endpoint := fmt.Sprintf("%s/oauth2/authorizations/clients/%s/", putioAPIBase, appConfig.ClientID)
	form := url.Values{"client_secret": {appConfig.ClientSecret}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(username, password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.AccessToken == "" {
		return "", &AuthError{Reason: "credential grant failed"}
	}
	return parsed.AccessToken, nil
}

func createTokenViaRelay(ctx context.Context, appConfig AppConfig, username, password string) (string, error) {
	endpoint := strings.TrimSuffix(appConfig.RelayURL, "/") + "/create-access-token"
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Reason: fmt.Sprintf("relay answered with status %d", resp.StatusCode)}
	}
	return strings.TrimSpace(string(body)), nil
}
