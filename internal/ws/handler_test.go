package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestHandleSearchWS_RejectsBadRequests(t *testing.T) {
	cases := []struct {
		name   string
		hub    *Hub
		query  string
		status int
	}{
		{"no hub", nil, "", http.StatusServiceUnavailable},
		{"bad conversation id", NewHub(nil), "?conversation_id=abc", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			NewHandler(tc.hub, nil).RegisterRoutes(app)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/search"+tc.query, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}
