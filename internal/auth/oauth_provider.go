package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	githubAPIURL      = "https://api.github.com"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// userInfoFunc fetches the profile with an authenticated client
type userInfoFunc func(ctx context.Context, client *http.Client) (*Profile, error)

// OAuthProvider is a plain OAuth2 provider whose profile comes from a
// provider-specific user info API.
type OAuthProvider struct {
	name     string
	config   *oauth2.Config
	apiURL   string
	userInfo userInfoFunc
}

var _ ProfileExchanger = (*OAuthProvider)(nil)

// NewGitHubProvider creates a new GitHub OAuth provider
func NewGitHubProvider(cfg OAuthProviderConfig) *OAuthProvider {
	p := &OAuthProvider{
		name:   "github",
		config: newOAuth2Config(cfg, github.Endpoint),
		apiURL: githubAPIURL,
	}
	p.userInfo = p.githubUserInfo
	return p
}

// NewGiteaProvider creates a new Gitea OAuth provider
func NewGiteaProvider(cfg OAuthProviderConfig, giteaURL string) *OAuthProvider {
	giteaURL = strings.TrimRight(giteaURL, "/")
	p := &OAuthProvider{
		name: "gitea",
		config: newOAuth2Config(cfg, oauth2.Endpoint{
			AuthURL:  giteaURL + "/login/oauth/authorize",
			TokenURL: giteaURL + "/login/oauth/access_token",
		}),
		apiURL: giteaURL + "/api/v1",
	}
	p.userInfo = p.giteaUserInfo
	return p
}

// NewGoogleProvider creates a new Google OAuth provider
func NewGoogleProvider(cfg OAuthProviderConfig) *OAuthProvider {
	p := &OAuthProvider{
		name:   "google",
		config: newOAuth2Config(cfg, google.Endpoint),
		apiURL: googleUserInfoURL,
	}
	p.userInfo = p.googleUserInfo
	return p
}

func newOAuth2Config(cfg OAuthProviderConfig, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

// Name returns the provider name
func (p *OAuthProvider) Name() string {
	return p.name
}

// AuthCodeURL returns the OAuth authorization URL with a PKCE challenge
func (p *OAuthProvider) AuthCodeURL(state string, params AuthCodeParams) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if params.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(params.CodeVerifier))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeProfile exchanges the authorization code and loads the user profile
func (p *OAuthProvider) ExchangeProfile(
	ctx context.Context,
	code string,
	params AuthCodeParams,
) (*Profile, error) {
	var opts []oauth2.AuthCodeOption
	if params.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(params.CodeVerifier))
	}

	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s token exchange: %v", ErrProviderExchange, p.name, err)
	}

	profile, err := p.userInfo(ctx, p.config.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderNoEmail, p.name)
	}
	profile.Provider = p.name
	return profile, nil
}

// getJSON performs an authenticated GET and decodes the JSON response into out
func (p *OAuthProvider) getJSON(
	ctx context.Context,
	client *http.Client,
	url string,
	out any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s user info: %v", ErrProviderExchange, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf(
			"%w: %s API error: %s - %s",
			ErrProviderExchange,
			p.name,
			resp.Status,
			string(body),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrProviderExchange, p.name, err)
	}
	return nil
}

// GitHub user info structures
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// providerEmail is an entry of the GitHub and Gitea /user/emails listings
type providerEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *OAuthProvider) githubUserInfo(ctx context.Context, client *http.Client) (*Profile, error) {
	var user githubUser
	if err := p.getJSON(ctx, client, p.apiURL+"/user", &user); err != nil {
		return nil, err
	}

	// Email is not public, fall back to the emails endpoint
	if user.Email == "" {
		var emails []providerEmail
		if err := p.getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		user.Email = pickVerifiedEmail(emails)
	}

	nickname := user.Name
	if nickname == "" {
		nickname = user.Login
	}

	return &Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          user.Email,
		Nickname:       nickname,
	}, nil
}

// pickVerifiedEmail prefers the primary verified address, then any verified one
func pickVerifiedEmail(emails []providerEmail) string {
	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email
		}
	}
	for _, email := range emails {
		if email.Verified {
			return email.Email
		}
	}
	return ""
}

// Gitea user info structure
type giteaUser struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (p *OAuthProvider) giteaUserInfo(ctx context.Context, client *http.Client) (*Profile, error) {
	var user giteaUser
	if err := p.getJSON(ctx, client, p.apiURL+"/user", &user); err != nil {
		return nil, err
	}

	// The profile email is not guaranteed to be verified
	var emails []providerEmail
	if err := p.getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
		return nil, err
	}

	nickname := user.FullName
	if nickname == "" {
		nickname = user.Login
	}

	return &Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          pickVerifiedEmail(emails),
		Nickname:       nickname,
	}, nil
}

// Google userinfo structure
type googleUser struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (p *OAuthProvider) googleUserInfo(ctx context.Context, client *http.Client) (*Profile, error) {
	var user googleUser
	if err := p.getJSON(ctx, client, p.apiURL, &user); err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, fmt.Errorf("%w: google email not verified", ErrProviderNoEmail)
	}

	return &Profile{
		ProviderUserID: user.Subject,
		Email:          user.Email,
		Nickname:       user.Name,
	}, nil
}
