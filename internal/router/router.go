package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tryvocalcat/fediprofile/internal/config"
	"github.com/tryvocalcat/fediprofile/internal/handler"
	"github.com/tryvocalcat/fediprofile/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InboxHandler *handler.InboxHandler
	ActorHandler *handler.ActorHandler
	AuthHandler  *handler.AuthHandler
}

// Register wires the HTTP routes into the fiber application. Fixed routes
// are registered before the slug wildcards so they cannot be shadowed.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/healthz", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.AuthHandler != nil {
		app.Get("/auth/authorize", deps.AuthHandler.Authorize)
	}

	if deps.ActorHandler != nil {
		app.Get("/.well-known/webfinger", deps.ActorHandler.WebFinger)
	}

	if deps.InboxHandler != nil {
		app.Post("/sharedInbox", deps.InboxHandler.SharedInbox)
		app.Post("/:slug/inbox", deps.InboxHandler.Inbox)
	}

	if deps.ActorHandler != nil {
		app.Get("/:slug/followers", deps.ActorHandler.Followers)
		app.Get("/:slug", deps.ActorHandler.Actor)
	}
}
