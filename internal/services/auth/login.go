package auth

import (
	"golang.org/x/oauth2"
)

// LoginClient builds the authorization redirect for the frontend's
// login flow. Token exchange happens with PKCE on the client, so no
// client secret is configured here.
type LoginClient struct {
	config *oauth2.Config
}

// NewLoginClient creates a login client for the given issuer.
func NewLoginClient(issuer, clientID, redirectURL string) *LoginClient {
	return &LoginClient{
		config: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Scopes:      []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/oauth2/authorize",
				TokenURL: issuer + "/oauth2/token",
			},
		},
	}
}

// AuthCodeURL returns the authorization URL for the given state.
func (c *LoginClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ClientID returns the configured OAuth2 client id.
func (c *LoginClient) ClientID() string {
	return c.config.ClientID
}

// RedirectURL returns the configured redirect URL.
func (c *LoginClient) RedirectURL() string {
	return c.config.RedirectURL
}
