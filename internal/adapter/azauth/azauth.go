// Package azauth builds OAuth2 token sources for the Azure management plane.
package azauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Strob0t/CostLens/internal/config"
)

// ManagementScope is the scope granting access to the Azure Resource Manager APIs.
const ManagementScope = "https://management.azure.com/.default"

// DefaultAuthority is the Azure AD login host.
const DefaultAuthority = "https://login.microsoftonline.com"

// ErrNoCredentials is returned when neither a service principal nor a token is configured.
var ErrNoCredentials = errors.New("no azure credentials configured")

// TokenSource returns a token source for cfg. A complete service principal
// uses the client-credentials grant; otherwise a pre-acquired access token is
// served as-is.
func TokenSource(ctx context.Context, cfg config.Azure) (oauth2.TokenSource, error) {
	return tokenSource(ctx, cfg, DefaultAuthority)
}

func tokenSource(ctx context.Context, cfg config.Azure, authority string) (oauth2.TokenSource, error) {
	switch {
	case cfg.HasServicePrincipal():
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, cfg.TenantID),
			Scopes:       []string{ManagementScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		return cc.TokenSource(ctx), nil
	case cfg.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}), nil
	default:
		return nil, ErrNoCredentials
	}
}
