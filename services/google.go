package services

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
)

var errGoogleNotConfigured = errors.New("google client id not configured")

// GoogleIdentity is what a verified Google ID token tells us.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error)
}

type IDTokenVerifier struct {
	clientID string
}

func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error) {
	if v == nil || v.clientID == "" {
		return nil, errGoogleNotConfigured
	}
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, err
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	return &GoogleIdentity{
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: claimTrue(payload.Claims["email_verified"]),
		Name:          name,
	}, nil
}

// claimTrue accepts both encodings Google has used for boolean claims.
func claimTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
