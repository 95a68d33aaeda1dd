package router

import (
	userapp "authapi/internal/application"
	"authapi/internal/container"
	pginfra "authapi/internal/infrastructure/postgres"
	handlers "authapi/internal/interface/http"
	"authapi/internal/router/modules"
)

// InitModules wires the auth feature from the dependency container and
// registers it with the router registry. Called once at startup.
func InitModules(r *Registry, c *container.Container) {
	repo := pginfra.NewUserRepository(c.PGPool)

	service := userapp.NewService(
		repo,
		c.JWT,
		c.Redis,
		c.Logger,
		c.ES,
		c.Cfg.ESUsersIndex,
		c.Pub,
		c.GCS,
		c.Cfg.GCSBucket,
		c.Cfg.MailSendEnabled,
	)

	handler := handlers.NewAuthHandler(service, c.Logger)
	r.Add(modules.NewAuthModule(handler, c.JWT, service))
}
