package xero

import "golang.org/x/oauth2"

// OAuth2 endpoints for the Xero identity service.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://login.xero.com/identity/connect/authorize",
	TokenURL: "https://identity.xero.com/connect/token",
}

// OAuthConfig builds the oauth2 configuration for the authorization-code
// flow against Xero.
func OAuthConfig(clientID, clientSecret, redirectURL string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     Endpoint,
	}
}
