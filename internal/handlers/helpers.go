package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/huddlehq/huddle/backend/internal/middleware"
	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/push"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's id, or 0 when the
// request carries no valid session
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// optionalUserID resolves the caller's user id on routes that accept
// anonymous requests: context claims first, then a bearer token if one was
// sent anyway. Returns 0 for anonymous callers.
func optionalUserID(c echo.Context) uint {
	if id := getUserIDFromContext(c); id != 0 {
		return id
	}
	parts := strings.Split(c.Request().Header.Get("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		if claims, err := middleware.ParseToken(parts[1]); err == nil {
			return claims.UserID
		}
	}
	return 0
}

// dispatchPush fires a best-effort push delivery for a domain event. Having
// no subscriptions is normal here, anything else is logged. Never blocks or
// fails the caller.
func dispatchPush(dispatcher *push.Dispatcher, userID uint, title, body string, data map[string]string) {
	if dispatcher == nil {
		return
	}
	go func() {
		if _, err := dispatcher.Dispatch(context.Background(), userID, title, body, data); err != nil {
			if !errors.Is(err, push.ErrNoSubscriptions) {
				log.Printf("Push dispatch for user %d failed: %v", userID, err)
			}
		}
	}()
}
