package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	cache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

type exchangeFunc func(ctx context.Context, code string) (string, error)
type createTokenFunc func(ctx context.Context, username, password string) (string, error)

// Server holds the relay's short-lived state→token store and the two
// exchange operations against the remote API. Both operations are plain
// function fields so tests can stub them out.
type Server struct {
	config      RelayConfig
	tokens      *cache.Cache
	exchange    exchangeFunc
	createToken createTokenFunc
}

func NewServer(config RelayConfig) *Server {
	ttl := time.Duration(config.TokenTTL) * time.Second
	s := &Server{
		config: config,
		tokens: cache.New(ttl, 2*ttl),
	}
	s.exchange = s.exchangeCode
	s.createToken = s.credentialGrant
	return s
}

func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Get("/", s.handleHome)
	router.Get("/oauth-callback", s.handleOAuthCallback)
	router.Get("/get-access-token", s.handleGetAccessToken)
	router.Post("/create-access-token", s.handleCreateAccessToken)
	return router
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.config.HomeURL, http.StatusFound)
}

// handleOAuthCallback exchanges the authorization code for a token, stores
// it keyed by state for one-time retrieval, and renders a confirmation
// page for the user.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		http.Error(w, "Request must include `state` and `code` as query parameters.", http.StatusBadRequest)
		return
	}

	accessToken, err := s.exchange(r.Context(), code)
	if err != nil {
		log.Warn(fmt.Sprintf("Code exchange failed: %s", err))
		http.Error(w, "An unknown error occurred.", http.StatusInternalServerError)
		return
	}

	s.tokens.Set(state, accessToken, cache.DefaultExpiration)
	log.Info(fmt.Sprintf("Stored access token for state %s", state))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := confirmationPage.Execute(w, map[string]string{"AccessToken": accessToken}); err != nil {
		log.Warn(fmt.Sprintf("Rendering confirmation page failed: %s", err))
	}
}

// handleGetAccessToken hands a stored token over exactly once, deleting it
// on retrieval.
func (s *Server) handleGetAccessToken(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		http.Error(w, "Request must include `state` as a query parameter.", http.StatusBadRequest)
		return
	}

	accessToken, found := s.tokens.Get(state)
	if !found {
		http.Error(w, "Access token couldn't be found", http.StatusNotFound)
		return
	}
	s.tokens.Delete(state)

	fmt.Fprint(w, accessToken)
}

func (s *Server) handleCreateAccessToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		http.Error(w, "Request must include `username` and `password` fields in its body.", http.StatusBadRequest)
		return
	}

	accessToken, err := s.createToken(r.Context(), body.Username, body.Password)
	if err != nil {
		log.Warn(fmt.Sprintf("Credential grant failed: %s", err))
		http.Error(w, "An unknown error occurred.", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, accessToken)
}

// exchangeCode performs the OAuth authorization-code exchange against the
// remote API using the relay's own app registration.
func (s *Server) exchangeCode(ctx context.Context, code string) (string, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: strings.TrimSuffix(s.config.APIBase, "/") + "/oauth2/access_token",
		},
		RedirectURL: strings.TrimSuffix(s.config.BaseURL, "/") + "/oauth-callback",
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// credentialGrant exchanges a username and password for a token using the
// relay's app registration.
func (s *Server) credentialGrant(ctx context.Context, username, password string) (string, error) {
	endpoint := fmt.Sprintf("%s/oauth2/authorizations/clients/%s/",
		strings.TrimSuffix(s.config.APIBase, "/"), s.config.ClientID)
	form := url.Values{"client_secret": {s.config.ClientSecret}}

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
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("no access token in response (status %d)", resp.StatusCode)
	}
	return parsed.AccessToken, nil
}

var confirmationPage = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorized</title></head>
<body>
<h1>You're all set.</h1>
<p>Your access token is:</p>
<pre>{{.AccessToken}}</pre>
<p>You can close this page and return to the terminal.</p>
</body>
</html>
`))
