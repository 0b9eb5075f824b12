package spotify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cli/browser"
	"github.com/gregjones/httpcache"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// RefreshTokenService is the credential store key under which the Spotify
// refresh token is persisted.
const RefreshTokenService = "spotify_refresh_token"

// Authenticator owns the OAuth2 authorization-code flow and the construction
// of authorized http.Clients from a stored refresh token.
type Authenticator struct {
	auth  *spotifyauth.Authenticator
	conf  *oauth2.Config
	creds driven.CredentialStore
	port  int
}

// NewAuthenticator builds an Authenticator for the given Spotify application.
// The callback listens on 127.0.0.1:redirectPort/callback, which must match
// the redirect URI registered for the application.
func NewAuthenticator(clientID, clientSecret string, redirectPort int, public bool, creds driven.CredentialStore) *Authenticator {
	scopes := []string{spotifyauth.ScopePlaylistModifyPrivate}
	if public {
		scopes = append(scopes, spotifyauth.ScopePlaylistModifyPublic)
	}
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", redirectPort)

	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithScopes(scopes...),
		),
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		creds: creds,
		port:  redirectPort,
	}
}

// Login runs the interactive authorization-code flow: it starts a loopback
// callback server, opens the authorize URL in the user's browser, waits for
// the redirect, exchanges the code, and persists the refresh token. It blocks
// until the flow completes or ctx is canceled.
func (a *Authenticator) Login(ctx context.Context) error {
	state, err := randomState()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return fmt.Errorf("listening on callback port %d: %w", a.port, err)
	}

	type callbackResult struct {
		token *oauth2.Token
		err   error
	}
	resultCh := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		token, err := a.auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Authorization failed. Make sure you click Agree, then retry the login command.", http.StatusForbidden)
			resultCh <- callbackResult{err: err}
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this window and return to the terminal.")
		resultCh <- callbackResult{token: token}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("callback server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := a.auth.AuthURL(state)
	if err := browser.OpenURL(authURL); err != nil {
		slog.Warn("could not open browser, visit the URL manually", "url", authURL)
	} else {
		slog.Info("waiting for authorization in browser", "url", authURL)
	}

	var result callbackResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	if result.err != nil {
		return fmt.Errorf("authorization failed: %w", result.err)
	}

	if result.token.RefreshToken == "" {
		return errors.New("authorization response did not include a refresh token")
	}
	if err := a.creds.Set(ctx, RefreshTokenService, result.token.RefreshToken); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			slog.Warn("refresh token not persisted, login will be required on every run", "error", err)
			return nil
		}
		return fmt.Errorf("persisting refresh token: %w", err)
	}

	slog.Info("spotify authorization complete, refresh token stored")
	return nil
}

// Client builds an authorized http.Client from the stored refresh token.
// The transport stack is: oauth2 token refresh over an in-memory ETag cache.
// Returns driven.ErrNotAuthenticated when no refresh token is stored.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	refreshToken, err := a.creds.Get(ctx, RefreshTokenService)
	if err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			return nil, driven.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("loading refresh token: %w", err)
	}
	if refreshToken == "" {
		return nil, driven.ErrNotAuthenticated
	}

	// oauth2.NewClient takes its base transport from the context client, so
	// conditional-request caching sits underneath token injection.
	cacheClient := &http.Client{Transport: httpcache.NewMemoryCacheTransport()}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, cacheClient)

	source := &persistingTokenSource{
		src:   a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}),
		creds: a.creds,
		last:  refreshToken,
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, source)), nil
}

// persistingTokenSource writes rotated refresh tokens back to the credential
// store so the next run can pick up where this one left off. oauth2's
// ReuseTokenSource serializes calls, so no extra locking is needed.
type persistingTokenSource struct {
	src   oauth2.TokenSource
	creds driven.CredentialStore
	last  string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	if token.RefreshToken != "" && token.RefreshToken != s.last {
		if err := s.creds.Set(context.Background(), RefreshTokenService, token.RefreshToken); err != nil {
			slog.Warn("could not persist rotated refresh token", "error", err)
		} else {
			s.last = token.RefreshToken
		}
	}

	return token, nil
}

// randomState generates the OAuth state parameter.
func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
