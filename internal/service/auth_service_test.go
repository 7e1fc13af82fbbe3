package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"go-brindes-ws/internal/identity"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	password string
	profile  identity.Profile
}

func (f *fakeProvider) Login(_ context.Context, _, password string) (string, error) {
	if password != f.password {
		return "", identity.ErrInvalidCredentials
	}
	return "upstream-token", nil
}

func (f *fakeProvider) Profile(_ context.Context, token string) (*identity.Profile, error) {
	if token != "upstream-token" {
		return nil, identity.ErrUnavailable
	}
	p := f.profile
	return &p, nil
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	provider := &fakeProvider{
		password: "s3cret",
		profile:  identity.Profile{Email: "bob@brindes.test", DisplayName: "Bob", RoleName: "vendas"},
	}
	svc := NewAuthService(provider, jwt.NewIssuer("test-secret", time.Hour))

	resp, err := svc.Login(ctx, " bob@brindes.test ", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RoleSales, resp.Session.Role)
	assert.True(t, resp.Session.Capabilities.CanMutateSamples)
	assert.False(t, resp.Session.Capabilities.CanViewStock)

	parts := strings.Split(resp.Token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "upstream-token")

	session, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob@brindes.test", session.Email)
	assert.Equal(t, "Bob", session.Name)
	assert.Equal(t, model.RoleSales, session.Role)
	assert.Equal(t, "bob@brindes.test", session.Label())
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(&fakeProvider{password: "s3cret"}, jwt.NewIssuer("test-secret", time.Hour))

	_, err := svc.Login(ctx, "bob@brindes.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthService_UnknownRoleIsPublic(t *testing.T) {
	provider := &fakeProvider{password: "pw", profile: identity.Profile{RoleName: "Intern"}}
	svc := NewAuthService(provider, jwt.NewIssuer("test-secret", time.Hour))

	resp, err := svc.Login(ctx, "eve@brindes.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RolePublic, resp.Session.Role)
	assert.Equal(t, "eve@brindes.test", resp.Session.Email)
	assert.Equal(t, "eve@brindes.test", resp.Session.Name)
	assert.Equal(t, model.Capabilities{}, resp.Session.Capabilities)
}
