package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	drive "google.golang.org/api/drive/v3"
	sheets "google.golang.org/api/sheets/v4"
)

var defaultScopes = []string{
	calendar.CalendarReadonlyScope,
	sheets.SpreadsheetsScope,
	drive.DriveReadonlyScope,
}

// CredentialProvider loads OAuth credentials from disk and hands out a
// token source. Refreshed tokens are written back to the token file so
// the next process start does not need a new consent flow. Acquiring
// the initial token (the OAuth redirect dance) is outside this
// component; it only consumes what that flow stored.
type CredentialProvider struct {
	credentialsFile string
	tokenFile       string
	scopes          []string
}

func NewCredentialProvider(credentialsFile, tokenFile string) *CredentialProvider {
	return &CredentialProvider{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		scopes:          defaultScopes,
	}
}

// TokenSource builds a self-refreshing token source from the stored
// client secret and token files.
func (p *CredentialProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	secret, err := os.ReadFile(p.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	conf, err := oauth2google.ConfigFromJSON(secret, p.scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tok, err := readToken(p.tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	src := conf.TokenSource(ctx, tok)
	return &persistingTokenSource{src: src, path: p.tokenFile, last: tok}, nil
}

// IsValid reports whether a usable token can currently be produced.
func (p *CredentialProvider) IsValid(ctx context.Context) bool {
	src, err := p.TokenSource(ctx)
	if err != nil {
		return false
	}
	tok, err := src.Token()
	return err == nil && tok.Valid()
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// persistingTokenSource writes refreshed tokens back to the token file.
type persistingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if data, err := json.Marshal(tok); err == nil {
			// Best effort; a failed save only costs a refresh next start.
			_ = os.WriteFile(s.path, data, 0o600)
		}
	}
	return tok, nil
}
