// Package identity talks to the Directus instance that owns user accounts.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnavailable        = errors.New("identity provider unavailable")
)

// Profile is what the provider says about the logged-in user.
type Profile struct {
	Email       string
	DisplayName string
	RoleName    string
}

type Provider interface {
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, token string) (*Profile, error)
}

type DirectusClient struct {
	baseURL  string
	insecure bool
	timeout  time.Duration
}

func NewDirectusClient(baseURL string, insecureTLS bool) *DirectusClient {
	return &DirectusClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		insecure: insecureTLS,
		timeout:  10 * time.Second,
	}
}

type loginResponse struct {
	Data struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type meResponse struct {
	Data struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      *struct {
			Name string `json:"name"`
		} `json:"role"`
	} `json:"data"`
}

// Login exchanges credentials for a provider access token.
func (c *DirectusClient) Login(ctx context.Context, email, password string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("%w: DIRECTUS_URL is not set", ErrUnavailable)
	}
	a := c.agent(ctx, fiber.Post(c.baseURL+"/auth/login"))
	a.JSON(fiber.Map{"email": email, "password": password})

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, errs[0])
	}
	switch {
	case code == fiber.StatusUnauthorized, code == fiber.StatusBadRequest, code == fiber.StatusForbidden:
		return "", ErrInvalidCredentials
	case code != fiber.StatusOK:
		return "", fmt.Errorf("%w: login returned %d", ErrUnavailable, code)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Data.AccessToken == "" {
		return "", ErrInvalidCredentials
	}
	return resp.Data.AccessToken, nil
}

// Profile fetches the role and name. A user without a role gets "PUBLIC".
func (c *DirectusClient) Profile(ctx context.Context, token string) (*Profile, error) {
	a := c.agent(ctx, fiber.Get(c.baseURL+"/users/me?fields=email,first_name,last_name,role.name"))
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, errs[0])
	}
	if code != fiber.StatusOK {
		return &Profile{RoleName: "PUBLIC"}, nil
	}

	var resp meResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p := &Profile{
		Email:       resp.Data.Email,
		DisplayName: strings.TrimSpace(resp.Data.FirstName + " " + resp.Data.LastName),
		RoleName:    "PUBLIC",
	}
	if resp.Data.Role != nil && resp.Data.Role.Name != "" {
		p.RoleName = strings.ToUpper(resp.Data.Role.Name)
	}
	return p, nil
}

func (c *DirectusClient) agent(ctx context.Context, a *fiber.Agent) *fiber.Agent {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	a.Timeout(timeout)
	if c.insecure {
		a.InsecureSkipVerify()
	}
	return a
}
