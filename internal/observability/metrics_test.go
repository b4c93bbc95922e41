package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestGradingCountersAreExported(t *testing.T) {
	GradingOperations().WithLabelValues("submit", "ok").Inc()
	GradingConflicts().WithLabelValues("submission").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `grading_operations_total{operation="submit",outcome="ok"}`))
	require.True(t, strings.Contains(string(body), `grading_conflicts_total{entity="submission"}`))
}
