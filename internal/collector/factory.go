package collector

import (
	"fmt"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// Modes accepted by NewCollector.
const (
	ModePublic = "public"
	ModeAPI    = "api"
	ModeMock   = "mock"
)

// Credentials for the authenticated API mode.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// NewCollector selects the correct implementation based on the mode
func NewCollector(mode string, client *Client, baseURL string, q Query, creds Credentials) (domain.Collector, error) {
	switch mode {
	case ModePublic, "":
		return NewPublicClient(client, baseURL, q), nil
	case ModeAPI:
		return NewAPIClient(
			NewPublicClient(client, baseURL, q),
			creds.ClientID,
			creds.ClientSecret,
			creds.Username,
			creds.Password,
			client.userAgent,
		)
	case ModeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown collector mode: %s (use 'api', 'public', or 'mock')", mode)
	}
}
