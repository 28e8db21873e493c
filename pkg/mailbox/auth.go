// Package mailbox reads recent messages of Gmail accounts.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested for every account, send scope is used by the newsletter sender
var Scopes = []string{gmail.GmailReadonlyScope, gmail.GmailSendScope}

// Account describes a Gmail account and its OAuth files
type Account struct {
	Name            string
	Email           string
	CredentialsFile string
	TokenFile       string
}

// storedToken accepts both oauth2.Token json and the google-auth python format ("token" field)
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// Authenticate makes gmail service for the account and returns it with the address reported by the profile.
// Token is refreshed when expired and the refreshed token is written back to the token file.
func Authenticate(ctx context.Context, acc Account, opts ...option.ClientOption) (*gmail.Service, string, error) {
	cfg, err := loadOAuthConfig(acc.CredentialsFile)
	if err != nil {
		return nil, "", err
	}
	token, err := loadToken(acc.TokenFile)
	if err != nil {
		return nil, "", err
	}

	ts := cfg.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, "", fmt.Errorf("refresh token for %s: %w", acc.Name, err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := saveToken(acc.TokenFile, fresh); err != nil {
			lgr.Printf("[WARN] can't save refreshed token for %s: %v", acc.Name, err)
		}
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("make gmail service for %s: %w", acc.Name, err)
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("get profile of %s: %w", acc.Name, err)
	}
	lgr.Printf("[INFO] gmail connection established for %s (%s)", acc.Name, profile.EmailAddress)
	return svc, profile.EmailAddress, nil
}

func loadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return cfg, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("read token %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("token file %s is empty", path)
	}
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	access := st.AccessToken
	if access == "" {
		access = st.Token
	}
	if access == "" && st.RefreshToken == "" {
		return nil, errors.New("token has neither access nor refresh token")
	}
	tokenType := st.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: access, TokenType: tokenType, RefreshToken: st.RefreshToken, Expiry: st.Expiry}, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
