package activityfee

import (
	"github.com/opencampus/tuition/internal/activityfee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activityfee.service",
	fx.Provide(service.NewService),
)
