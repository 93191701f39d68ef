package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", Protected(testSecret), func(c *fiber.Ctx) error {
		id := GetIdentity(c)
		return c.JSON(fiber.Map{"userId": id.UserID, "role": id.Role})
	})
	return app
}

func TestProtected_ValidToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", Role: models.RoleSupervisor}
	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtected_Rejects(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com"}
	wrong, err := GenerateToken("other-secret", user)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"no bearer":      wrong,
		"wrong secret":   "Bearer " + wrong,
		"garbage":        "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := newApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
