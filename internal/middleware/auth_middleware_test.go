package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go-brindes-ws/internal/identity"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"
	"go-brindes-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noProvider struct{}

func (noProvider) Login(context.Context, string, string) (string, error) {
	return "", identity.ErrUnavailable
}

func (noProvider) Profile(context.Context, string) (*identity.Profile, error) {
	return nil, identity.ErrUnavailable
}

func status(t *testing.T, app *fiber.App, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireAuthAndCapability(t *testing.T) {
	issuer := jwt.NewIssuer("mw-test", time.Hour)
	authSvc := service.NewAuthService(noProvider{}, issuer)

	app := fiber.New()
	app.Get("/stock", RequireAuth(authSvc), RequireCapability("view stock", CanViewStock), func(c *fiber.Ctx) error {
		return c.SendString(Session(c).Label())
	})

	sales, err := issuer.GenerateToken("bob@brindes.test", "Bob", "VENDAS")
	require.NoError(t, err)
	purchasing, err := issuer.GenerateToken("alice@brindes.test", "Alice", "COMPRAS")
	require.NoError(t, err)

	assert.Equal(t, 401, status(t, app, "/stock", nil))
	assert.Equal(t, 401, status(t, app, "/stock", map[string]string{"Authorization": purchasing}))
	assert.Equal(t, 401, status(t, app, "/stock", map[string]string{"Authorization": "Bearer nope"}))
	assert.Equal(t, 403, status(t, app, "/stock", map[string]string{"Authorization": "Bearer " + sales}))
	assert.Equal(t, 200, status(t, app, "/stock", map[string]string{"Authorization": "Bearer " + purchasing}))
}

func TestRequireCapabilityWithoutSession(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireCapability("manage the catalog", IsAdmin), func(c *fiber.Ctx) error { return nil })
	assert.Equal(t, 403, status(t, app, "/", nil))
}

func TestRequireBotKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("0123456789abcdef"), bcrypt.MinCost)
	require.NoError(t, err)

	var seen string
	app := fiber.New()
	app.Get("/bot", RequireBotKey(string(hash)), func(c *fiber.Ctx) error {
		seen = BotActor(c)
		return nil
	})

	assert.Equal(t, 401, status(t, app, "/bot", nil))
	assert.Equal(t, 401, status(t, app, "/bot", map[string]string{"X-Bot-Key": "wrong"}))

	assert.Equal(t, 200, status(t, app, "/bot", map[string]string{"X-Bot-Key": "0123456789abcdef"}))
	assert.Equal(t, DefaultBotActor, seen)

	assert.Equal(t, 200, status(t, app, "/bot", map[string]string{"X-Bot-Key": "0123456789abcdef", "X-Actor": "dave"}))
	assert.Equal(t, "dave", seen)

	unconfigured := fiber.New()
	unconfigured.Get("/bot", RequireBotKey(""), func(c *fiber.Ctx) error { return nil })
	assert.Equal(t, 503, status(t, unconfigured, "/bot", map[string]string{"X-Bot-Key": "x"}))
}

func TestSessionCapabilitiesFollowRole(t *testing.T) {
	caps := model.RoleAdministrator.Capabilities()
	assert.True(t, CanViewStock(caps) && CanMutateStock(caps) && CanViewSamples(caps) && CanMutateSamples(caps) && IsAdmin(caps))
	assert.False(t, CanMutateStock(model.RoleSales.Capabilities()))
}
