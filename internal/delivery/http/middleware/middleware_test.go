package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery_LogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(Recovery(zap.New(core)))
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("raster exploded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/boom", entries[0].ContextMap()["path"])
	assert.Equal(t, "raster exploded", entries[0].ContextMap()["panic"])
}

func TestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New()
	app.Use(Logger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/bad", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadRequest) })
	app.Get("/fail", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })

	for _, path := range []string{"/ok", "/bad", "/fail"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	all := logs.All()
	require.Len(t, all, 3)
	assert.Equal(t, zapcore.InfoLevel, all[0].Level)
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, all[2].Level)
	assert.EqualValues(t, fiber.StatusBadGateway, all[2].ContextMap()["status"])
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(""))
	app.Post("/analyze-location", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/analyze-location", nil)
	req.Header.Set("Origin", "http://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("https://sites.example.org"))
	app.Post("/analyze-location", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/analyze-location", nil)
	req.Header.Set("Origin", "http://other.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
