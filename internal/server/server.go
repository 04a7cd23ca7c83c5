// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallfirm/fakturo/internal/client"
	clientdomain "github.com/smallfirm/fakturo/internal/client/domain"
	"github.com/smallfirm/fakturo/internal/config"
	"github.com/smallfirm/fakturo/internal/invoice"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/internal/observability"
	obsmiddleware "github.com/smallfirm/fakturo/internal/observability/logger"
	obstracing "github.com/smallfirm/fakturo/internal/observability/tracing"
	"github.com/smallfirm/fakturo/internal/profile"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	"github.com/smallfirm/fakturo/internal/providers"
	"github.com/smallfirm/fakturo/internal/providers/email"
	"github.com/smallfirm/fakturo/internal/providers/pdf"
	"github.com/smallfirm/fakturo/internal/recurring"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	profile.Module,
	client.Module,
	invoice.Module,
	recurring.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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
	engine       *gin.Engine
	cfg          config.Config
	genID        *snowflake.Node
	profileSvc   profiledomain.Service
	clientSvc    clientdomain.Service
	invoiceSvc   invoicedomain.Service
	recurringSvc recurringdomain.Service
	pdfProvider  pdf.Provider
	mailProvider email.Provider
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	GenID        *snowflake.Node
	ProfileSvc   profiledomain.Service
	ClientSvc    clientdomain.Service
	InvoiceSvc   invoicedomain.Service
	RecurringSvc recurringdomain.Service
	PDFProvider  pdf.Provider
	MailProvider email.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		genID:        p.GenID,
		profileSvc:   p.ProfileSvc,
		clientSvc:    p.ClientSvc,
		invoiceSvc:   p.InvoiceSvc,
		recurringSvc: p.RecurringSvc,
		pdfProvider:  p.PDFProvider,
		mailProvider: p.MailProvider,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/profile", s.GetProfile)
	api.PUT("/profile", s.UpdateProfile)

	api.POST("/clients", s.CreateClient)
	api.GET("/clients", s.ListClients)
	api.GET("/clients/:id", s.GetClient)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.POST("/clients/:id/archive", s.ArchiveClient)
	api.POST("/clients/:id/unarchive", s.UnarchiveClient)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/invoices/:id/convert", s.ConvertQuote)
	api.POST("/invoices/:id/trash", s.TrashInvoice)
	api.POST("/invoices/:id/restore", s.RestoreInvoice)
	api.GET("/invoices/:id/pdf", s.InvoicePDF)
	api.POST("/invoices/:id/email", s.EmailInvoice)
	api.GET("/invoices/:id/events", s.InvoiceEvents)

	api.POST("/recurring", s.CreateSchedule)
	api.GET("/recurring", s.ListSchedules)
	api.GET("/recurring/:id", s.GetSchedule)
	api.PATCH("/recurring/:id", s.UpdateSchedule)
	api.DELETE("/recurring/:id", s.DeleteSchedule)
	api.POST("/recurring/:id/pause", s.PauseSchedule)
	api.POST("/recurring/:id/resume", s.ResumeSchedule)
	api.POST("/recurring/:id/trigger", s.TriggerSchedule)
}
