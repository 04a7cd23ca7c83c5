package providers

import (
	"github.com/smallfirm/fakturo/internal/providers/email"
	"github.com/smallfirm/fakturo/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
