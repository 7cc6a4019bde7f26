package studentfee

import (
	"github.com/opencampus/tuition/internal/studentfee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("studentfee.service",
	fx.Provide(service.NewService),
)
