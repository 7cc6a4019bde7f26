package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opencampus/tuition/internal/activityfee"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
	"github.com/opencampus/tuition/internal/audit"
	"github.com/opencampus/tuition/internal/bursary"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	"github.com/opencampus/tuition/internal/clock"
	"github.com/opencampus/tuition/internal/config"
	"github.com/opencampus/tuition/internal/directory"
	"github.com/opencampus/tuition/internal/feecalc"
	"github.com/opencampus/tuition/internal/feestructure"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/opencampus/tuition/internal/migration"
	obslogger "github.com/opencampus/tuition/internal/observability/logger"
	obsmetrics "github.com/opencampus/tuition/internal/observability/metrics"
	"github.com/opencampus/tuition/internal/payment"
	paymentdomain "github.com/opencampus/tuition/internal/payment/domain"
	"github.com/opencampus/tuition/internal/statistics"
	statisticsdomain "github.com/opencampus/tuition/internal/statistics/domain"
	"github.com/opencampus/tuition/internal/studentfee"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	obsmetrics.Module,
	migration.Module,
	fx.Provide(registerGin),
	audit.Module,
	directory.Module,
	feestructure.Module,
	bursary.Module,
	activityfee.Module,
	feecalc.Module,
	studentfee.Module,
	payment.Module,
	statistics.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	genID  *snowflake.Node

	structureSvc   feestructuredomain.Service
	bursarySvc     bursarydomain.Service
	activityFeeSvc activityfeedomain.Service
	studentFeeSvc  studentfeedomain.Service
	paymentSvc     paymentdomain.Service
	statisticsSvc  statisticsdomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	GenID *snowflake.Node

	StructureSvc   feestructuredomain.Service
	BursarySvc     bursarydomain.Service
	ActivityFeeSvc activityfeedomain.Service
	StudentFeeSvc  studentfeedomain.Service
	PaymentSvc     paymentdomain.Service
	StatisticsSvc  statisticsdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		genID:          p.GenID,
		structureSvc:   p.StructureSvc,
		bursarySvc:     p.BursarySvc,
		activityFeeSvc: p.ActivityFeeSvc,
		studentFeeSvc:  p.StudentFeeSvc,
		paymentSvc:     p.PaymentSvc,
		statisticsSvc:  p.StatisticsSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Fee structures --------
	v1.POST("/fee-structures", s.CreateFeeStructure)
	v1.GET("/fee-structures", s.ListFeeStructures)
	v1.GET("/fee-structures/:id", s.GetFeeStructureByID)
	v1.PATCH("/fee-structures/:id", s.UpdateFeeStructure)
	v1.DELETE("/fee-structures/:id", s.DeleteFeeStructure)

	// -------- Bursaries --------
	v1.POST("/bursaries", s.CreateBursary)
	v1.GET("/bursaries", s.ListBursaries)
	v1.GET("/bursaries/:id", s.GetBursaryByID)
	v1.DELETE("/bursaries/:id", s.DeleteBursary)

	// -------- Activity fees --------
	v1.POST("/activity-fees", s.CreateActivityFee)
	v1.GET("/activity-fees", s.ListActivityFees)
	v1.GET("/activity-fees/:id", s.GetActivityFeeByID)
	v1.PATCH("/activity-fees/:id", s.UpdateActivityFee)
	v1.DELETE("/activity-fees/:id", s.DeleteActivityFee)

	// -------- Student fees --------
	v1.POST("/student-fees/preview", s.PreviewStudentFee)
	v1.POST("/student-fees", s.CreateStudentFee)
	v1.GET("/student-fees", s.ListStudentFees)
	v1.GET("/student-fees/:id", s.GetStudentFeeByID)
	v1.POST("/student-fees/:id/waive", s.WaiveStudentFee)
	v1.DELETE("/student-fees/:id/bursary", s.RemoveStudentFeeBursary)
	v1.GET("/student-fees/:id/payments", s.ListPaymentsByFee)

	// -------- Payments --------
	v1.POST("/payments", s.RecordPayment)
	v1.GET("/payments/:id", s.GetPaymentByID)
	v1.POST("/payments/:id/refund", s.RefundPayment)

	// -------- School level operations --------
	v1.POST("/schools/:id/mark-overdue", s.MarkOverdue)
	v1.GET("/schools/:id/statistics", s.GetStatistics)
}
