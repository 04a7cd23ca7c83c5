package client

import (
	"github.com/smallfirm/fakturo/internal/client/repository"
	"github.com/smallfirm/fakturo/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
