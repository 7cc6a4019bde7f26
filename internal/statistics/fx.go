package statistics

import (
	"github.com/opencampus/tuition/internal/statistics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("statistics.service",
	fx.Provide(service.NewService),
)
