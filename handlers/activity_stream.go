package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
	"wellness-entitlements/middleware"
	"wellness-entitlements/services"
)

const streamPollInterval = 2 * time.Second

// SetupActivityStream serves the MP activity feed as server-sent events so the
// dashboard can animate rewards as they land.
func SetupActivityStream(app *fiber.App, ledger *services.PointsLedger, log *logger.Logger) {
	app.Get("/user/mp/stream", middleware.UserContextMiddleware(log), func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		done := c.Context().Done()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			streamActivity(w, ledger, userID, streamPollInterval, done, log)
		})
		return nil
	})
}

func streamActivity(w *bufio.Writer, ledger *services.PointsLedger, userID string, every time.Duration, done <-chan struct{}, log *logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	ctx := context.Background()
	cursor, err := ledger.ActivityCursor(ctx, userID)
	if err != nil {
		log.Warn("SSE init error", "user_id", userID, "error", err)
	}

	// Initial keepalive (comment event)
	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			entries, next, err := ledger.ActivitySince(ctx, userID, cursor)
			if err != nil {
				log.Warn("SSE poll error", "user_id", userID, "error", err)
				continue
			}
			cursor = next
			if len(entries) == 0 {
				continue
			}
			for _, e := range entries {
				payload, _ := json.Marshal(e)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, payload)
			}
			if err := w.Flush(); err != nil {
				// Client disconnected
				return
			}
		case <-done:
			return
		}
	}
}
