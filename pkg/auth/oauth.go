package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"
)

const (
	NotionAuthorizeURL = "https://api.notion.com/v1/oauth/authorize"
	NotionTokenURL     = "https://api.notion.com/v1/oauth/token"

	defaultRedirectAddr = "localhost:8080"
	defaultAuthTimeout  = 5 * time.Minute
)

var (
	// ErrAuthenticationRequired means no usable credential exists and none can be obtained without the user
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthenticationFailed means the consent flow or code exchange did not yield a token
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// TokenProvider returns the current access token for an account
type TokenProvider interface {
	Token(ctx context.Context, accountID, label string) (string, error)
}

// OAuth2Config holds the Notion public integration settings for one account
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenPath    string

	AuthorizeURL string
	TokenURL     string
	RedirectAddr string
	Timeout      time.Duration

	// Interactive allows GetToken to run the browser consent flow
	Interactive bool
	// Notify is called with the consent URL; the default prints instructions to Out
	Notify func(authURL string)
	Out    io.Writer
}

// NewOAuth2Config creates a configuration using the Notion endpoints
func NewOAuth2Config(clientID, clientSecret, tokenPath string) *OAuth2Config {
	return &OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenPath:    tokenPath,
		AuthorizeURL: NotionAuthorizeURL,
		TokenURL:     NotionTokenURL,
		RedirectAddr: defaultRedirectAddr,
		Timeout:      defaultAuthTimeout,
		Out:          os.Stderr,
	}
}

func (c *OAuth2Config) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthorizeURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// LoadToken loads the cached token from file
func (c *OAuth2Config) LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(c.TokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("could not parse OAuth token: %w", err)
	}
	return token, nil
}

// SaveToken saves token to file
func (c *OAuth2Config) SaveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(c.TokenPath), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(c.TokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not save OAuth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// GetToken returns the cached token, running the consent flow when none is
// stored and the config is interactive. label is shown to the user.
func (c *OAuth2Config) GetToken(ctx context.Context, label string) (*oauth2.Token, error) {
	token, err := c.LoadToken()
	if err == nil && token.AccessToken != "" {
		// Notion access tokens do not expire unless the integration is removed
		if token.Expiry.IsZero() || token.Valid() {
			return token, nil
		}
		if token.RefreshToken != "" {
			if refreshed, rerr := c.oauthConfig("").TokenSource(ctx, token).Token(); rerr == nil {
				if err := c.SaveToken(refreshed); err != nil {
					return nil, err
				}
				return refreshed, nil
			}
		}
	}

	if !c.Interactive {
		return nil, fmt.Errorf("%w for %s", ErrAuthenticationRequired, label)
	}

	token, err = c.authenticate(ctx, label)
	if err != nil {
		return nil, err
	}
	if err := c.SaveToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// authenticate performs the OAuth consent flow with a local callback server
func (c *OAuth2Config) authenticate(ctx context.Context, label string) (*oauth2.Token, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("%w: OAuth client id and secret are not configured", ErrAuthenticationRequired)
	}

	listener, err := net.Listen("tcp", c.RedirectAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: local server: %v", ErrAuthenticationFailed, err)
	}
	redirectURL := "http://" + listener.Addr().String()
	config := c.oauthConfig(redirectURL)
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			code := q.Get("code")
			switch {
			case q.Get("error") != "":
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(callbackPage("Authorization error", "Access was not granted.")))
				sendErr(errorChan, fmt.Errorf("consent denied: %s", q.Get("error")))
			case q.Get("state") != state:
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(callbackPage("Authorization error", "State mismatch.")))
				sendErr(errorChan, fmt.Errorf("state mismatch"))
			case code == "":
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(callbackPage("Authorization error", "Authorization code not received.")))
				sendErr(errorChan, fmt.Errorf("authorization code not received"))
			default:
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(callbackPage("Authorization successful", "You can close this window and return to the application.")))
				select {
				case codeChan <- code:
				default:
				}
			}
		}),
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errorChan, err)
		}
	}()
	defer func() { _ = server.Shutdown(context.WithoutCancel(ctx)) }()

	authURL := config.AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))
	c.notify(label, authURL)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	var authCode string
	select {
	case authCode = <-codeChan:
	case err := <-errorChan:
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: authorization timeout exceeded", ErrAuthenticationFailed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("%w: could not exchange authorization code: %v", ErrAuthenticationFailed, err)
	}
	return token, nil
}

func (c *OAuth2Config) notify(label, authURL string) {
	if c.Notify != nil {
		c.Notify(authURL)
		return
	}
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "\n🔐 Notion authorization required (%s)\n", label)
	fmt.Fprintf(out, "1. Open this link: %s\n", authURL)
	fmt.Fprintf(out, "2. Select the pages to share\n")
	fmt.Fprintf(out, "3. You will be redirected automatically\n")
	fmt.Fprintf(out, "\nWaiting for authorization...\n")
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func callbackPage(title, message string) string {
	return `<html><body><h2>` + title + `</h2><p>` + message + `</p></body></html>`
}

// AccountTokenProvider resolves OAuth tokens per account, one token file each.
// Consent flows run one at a time since they share the callback address.
type AccountTokenProvider struct {
	ClientID     string
	ClientSecret string
	TokenDir     string
	Interactive  bool
	Out          io.Writer
	Notify       func(authURL string)

	// endpoint overrides; empty uses the Notion defaults
	AuthorizeURL string
	TokenURL     string
	RedirectAddr string

	consentOnce sync.Once
	consent     *semaphore.Weighted
}

// NewAccountTokenProvider creates a provider storing tokens under tokenDir
func NewAccountTokenProvider(clientID, clientSecret, tokenDir string, interactive bool) *AccountTokenProvider {
	return &AccountTokenProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenDir:     tokenDir,
		Interactive:  interactive,
		Out:          os.Stderr,
	}
}

// TokenPath returns the token file for accountID
func (p *AccountTokenProvider) TokenPath(accountID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(accountID)
	return filepath.Join(p.TokenDir, "notion-"+name+".json")
}

// Config builds the per-account OAuth configuration
func (p *AccountTokenProvider) Config(accountID string) *OAuth2Config {
	c := NewOAuth2Config(p.ClientID, p.ClientSecret, p.TokenPath(accountID))
	c.Interactive = p.Interactive
	c.Out = p.Out
	c.Notify = p.Notify
	if p.AuthorizeURL != "" {
		c.AuthorizeURL = p.AuthorizeURL
	}
	if p.TokenURL != "" {
		c.TokenURL = p.TokenURL
	}
	if p.RedirectAddr != "" {
		c.RedirectAddr = p.RedirectAddr
	}
	return c
}

// Token implements TokenProvider. A stored or refreshable token is returned
// without waiting; otherwise the caller queues for the consent flow.
func (p *AccountTokenProvider) Token(ctx context.Context, accountID, label string) (string, error) {
	config := p.Config(accountID)
	config.Interactive = false
	token, err := config.GetToken(ctx, label)
	if err == nil {
		return token.AccessToken, nil
	}
	if !p.Interactive || !errors.Is(err, ErrAuthenticationRequired) {
		return "", err
	}

	lock := p.consentLock()
	if err := lock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer lock.Release(1)

	// GetToken reloads the file, so a waiter picks up the token saved by the
	// flow that held the lock before it
	config.Interactive = true
	token, err = config.GetToken(ctx, label)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (p *AccountTokenProvider) consentLock() *semaphore.Weighted {
	p.consentOnce.Do(func() { p.consent = semaphore.NewWeighted(1) })
	return p.consent
}

// Logout removes the stored token for accountID
func (p *AccountTokenProvider) Logout(accountID string) error {
	err := os.Remove(p.TokenPath(accountID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
