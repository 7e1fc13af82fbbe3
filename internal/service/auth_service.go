package service

import (
	"context"
	"errors"
	"strings"

	"go-brindes-ws/internal/identity"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/pkg/jwt"
)

var ErrInvalidCredentials = identity.ErrInvalidCredentials

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ValidateToken(tokenString string) (*Session, error)
}

// Session is the caller identity carried by every authenticated request.
type Session struct {
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	Role         model.Role         `json:"role"`
	Capabilities model.Capabilities `json:"capabilities"`
}

// Label is the actor string written to movement logs.
func (s *Session) Label() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Name
}

type LoginResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"user"`
}

type authService struct {
	provider identity.Provider
	issuer   *jwt.Issuer
}

func NewAuthService(provider identity.Provider, issuer *jwt.Issuer) AuthService {
	return &authService{provider: provider, issuer: issuer}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.TrimSpace(email)
	upstream, err := s.provider.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.provider.Profile(ctx, upstream)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		profile.Email = email
	}
	if profile.DisplayName == "" {
		profile.DisplayName = email
	}

	role := model.ParseRole(profile.RoleName)
	token, err := s.issuer.GenerateToken(profile.Email, profile.DisplayName, role.String())
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token: token,
		Session: &Session{
			Email:        profile.Email,
			Name:         profile.DisplayName,
			Role:         role,
			Capabilities: role.Capabilities(),
		},
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*Session, error) {
	claims, err := s.issuer.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	role := model.ParseRole(claims.Role)
	return &Session{
		Email:        claims.Email,
		Name:         claims.Name,
		Role:         role,
		Capabilities: role.Capabilities(),
	}, nil
}
