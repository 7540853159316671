package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Supported values of the "type" field of a credentials file.
const (
	TypeServiceAccount = "service_account"
	TypeAuthorizedUser = "authorized_user"
)

// CredentialsError is returned when credentials cannot be loaded.
type CredentialsError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *CredentialsError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("google credentials: %v", e.Err)
	}
	return fmt.Sprintf("google credentials %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *CredentialsError) Unwrap() error {
	return e.Err
}

// CredentialsType returns the "type" field of a credentials JSON document.
func CredentialsType(data []byte) (string, error) {
	var f struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if f.Type == "" {
		return "", fmt.Errorf("credentials JSON has no type field")
	}
	return f.Type, nil
}

// LoadCredentials reads credentials from path. An empty path falls back to
// Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS, the gcloud
// well-known file, or the metadata server).
func LoadCredentials(ctx context.Context, path string, scopes ...string) (*google.Credentials, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	if path == "" {
		creds, err := google.FindDefaultCredentials(ctx, scopes...)
		if err != nil {
			return nil, &CredentialsError{Err: err}
		}
		return creds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialsError{Path: path, Err: err}
	}

	credType, err := CredentialsType(data)
	if err != nil {
		return nil, &CredentialsError{Path: path, Err: err}
	}
	if credType != TypeServiceAccount && credType != TypeAuthorizedUser {
		return nil, &CredentialsError{Path: path, Err: fmt.Errorf("unsupported credentials type %q", credType)}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, &CredentialsError{Path: path, Err: err}
	}
	return creds, nil
}

// HTTPClient returns an HTTP client authenticated with creds.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func HTTPClient(ctx context.Context, creds *google.Credentials) *http.Client {
	client := oauth2.NewClient(ctx, creds.TokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client
}

// ClientOptions loads credentials from path and returns the API client
// options for google.golang.org/api services.
func ClientOptions(ctx context.Context, path string, scopes ...string) ([]option.ClientOption, error) {
	creds, err := LoadCredentials(ctx, path, scopes...)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithHTTPClient(HTTPClient(ctx, creds))}, nil
}
