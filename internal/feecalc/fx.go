package feecalc

import (
	"github.com/opencampus/tuition/internal/feecalc/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feecalc.service",
	fx.Provide(service.NewService),
)
