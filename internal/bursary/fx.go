package bursary

import (
	"github.com/opencampus/tuition/internal/bursary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bursary.service",
	fx.Provide(service.NewService),
)
