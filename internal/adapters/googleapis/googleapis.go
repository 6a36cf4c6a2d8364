// Package googleapis holds what the Google Workspace adapters share: bearer
// token client options and error classification.
package googleapis

import (
	"errors"
	"strings"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// WithAccessToken authorizes a service with a caller-supplied OAuth access token.
// The token is never refreshed.
func WithAccessToken(token string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

var authReasons = map[string]bool{
	"authError":     true,
	"invalid_grant": true,
	"unauthorized":  true,
}

// Classify maps a Google API client error to a domain.DeliveryError.
func Classify(destination string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		kind := domain.KindForStatus(gerr.Code)
		reason := ""
		if len(gerr.Errors) > 0 {
			reason = gerr.Errors[0].Reason
		}
		if authReasons[reason] {
			kind = domain.DeliveryAuthExpired
		}
		msg := gerr.Message
		if msg == "" {
			msg = gerr.Error()
		}
		return &domain.DeliveryError{
			Kind:        kind,
			Destination: destination,
			StatusCode:  gerr.Code,
			Code:        reason,
			Message:     msg,
			Err:         err,
		}
	}

	// token endpoint failures surface as *oauth2.RetrieveError
	kind := domain.DeliveryTransient
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) || strings.Contains(err.Error(), "invalid_grant") {
		kind = domain.DeliveryAuthExpired
	}
	return &domain.DeliveryError{
		Kind:        kind,
		Destination: destination,
		Message:     err.Error(),
		Err:         err,
	}
}
