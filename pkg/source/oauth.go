package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// DriveReadOnlyScope is enough to export a Google Doc.
const DriveReadOnlyScope = "https://www.googleapis.com/auth/drive.readonly"

type clientCredentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// credentialsFile is the client secrets file downloaded from the Google
// Cloud console, for either an installed or a web application.
type credentialsFile struct {
	Installed *clientCredentials `json:"installed"`
	Web       *clientCredentials `json:"web"`
}

// savedToken accepts both the golang.org/x/oauth2 token layout and the
// layout written by the Node.js Google client (expiry_date in milliseconds).
type savedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	ExpiryDate   int64     `json:"expiry_date"`
}

// LoadOAuthConfig reads a client credentials JSON file.
func LoadOAuthConfig(credentialsPath string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials %s: %w", credentialsPath, err)
	}

	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", credentialsPath, err)
	}
	credentials := file.Installed
	if credentials == nil {
		credentials = file.Web
	}
	if credentials == nil || credentials.ClientID == "" {
		return nil, fmt.Errorf("credentials %s have no installed or web client", credentialsPath)
	}

	endpoint := endpoints.Google
	if credentials.AuthURI != "" {
		endpoint.AuthURL = credentials.AuthURI
	}
	if credentials.TokenURI != "" {
		endpoint.TokenURL = credentials.TokenURI
	}

	oauthConfig := &oauth2.Config{
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
	if len(credentials.RedirectURIs) > 0 {
		oauthConfig.RedirectURL = credentials.RedirectURIs[0]
	}
	return oauthConfig, nil
}

// LoadToken reads a saved token JSON file.
func LoadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", tokenPath, err)
	}

	var saved savedToken
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse token %s: %w", tokenPath, err)
	}
	if saved.AccessToken == "" && saved.RefreshToken == "" {
		return nil, fmt.Errorf("token %s has neither an access nor a refresh token", tokenPath)
	}

	token := &oauth2.Token{
		AccessToken:  saved.AccessToken,
		TokenType:    saved.TokenType,
		RefreshToken: saved.RefreshToken,
		Expiry:       saved.Expiry,
	}
	if token.Expiry.IsZero() && saved.ExpiryDate > 0 {
		token.Expiry = time.UnixMilli(saved.ExpiryDate)
	}
	return token, nil
}

// NewOAuthClient returns an HTTP client that authorizes requests with the
// saved token and refreshes it when it expires. The consent flow that
// produces the token is not part of billtrace.
func NewOAuthClient(ctx context.Context, credentialsPath, tokenPath string, baseClient *http.Client) (*http.Client, error) {
	oauthConfig, err := LoadOAuthConfig(credentialsPath, DriveReadOnlyScope)
	if err != nil {
		return nil, err
	}
	if tokenPath == "" {
		return nil, fmt.Errorf("a token file is required with credentials %s", credentialsPath)
	}
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, err
	}

	// The client outlives ctx; only its values are kept.
	clientCtx := context.WithoutCancel(ctx)
	if baseClient != nil {
		clientCtx = context.WithValue(clientCtx, oauth2.HTTPClient, baseClient)
	}
	return oauthConfig.Client(clientCtx, token), nil
}
