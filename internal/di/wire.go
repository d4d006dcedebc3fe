//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}
