package invoice

import (
	"github.com/smallfirm/fakturo/internal/invoice/repository"
	"github.com/smallfirm/fakturo/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
