package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solobill/solobill/internal/client"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/config"
	"github.com/solobill/solobill/internal/document"
	documentdomain "github.com/solobill/solobill/internal/document/domain"
	"github.com/solobill/solobill/internal/draft"
	draftdomain "github.com/solobill/solobill/internal/draft/domain"
	"github.com/solobill/solobill/internal/email"
	emaildomain "github.com/solobill/solobill/internal/email/domain"
	"github.com/solobill/solobill/internal/invoice"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/observability"
	obsmiddleware "github.com/solobill/solobill/internal/observability/logger"
	obsmetrics "github.com/solobill/solobill/internal/observability/metrics"
	"github.com/solobill/solobill/internal/payment"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	"github.com/solobill/solobill/internal/proposal"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	client.Module,
	invoice.Module,
	payment.Module,
	proposal.Module,
	email.Module,
	document.Module,
	draft.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	clientSvc   clientdomain.Service
	invoiceSvc  invoicedomain.Service
	paymentSvc  paymentdomain.Service
	proposalSvc proposaldomain.Service
	emailSvc    emaildomain.Service
	documentSvc documentdomain.Service
	draftSvc    draftdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	ClientSvc   clientdomain.Service
	InvoiceSvc  invoicedomain.Service
	PaymentSvc  paymentdomain.Service
	ProposalSvc proposaldomain.Service
	EmailSvc    emaildomain.Service
	DocumentSvc documentdomain.Service
	DraftSvc    draftdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		clientSvc:   p.ClientSvc,
		invoiceSvc:  p.InvoiceSvc,
		paymentSvc:  p.PaymentSvc,
		proposalSvc: p.ProposalSvc,
		emailSvc:    p.EmailSvc,
		documentSvc: p.DocumentSvc,
		draftSvc:    p.DraftSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.OwnerRequired())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PUT("/clients/:id", s.UpdateClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/mark-sent", s.MarkInvoiceSent)
	api.POST("/invoices/:id/payment-link", s.GenerateInvoicePaymentLink)
	api.GET("/invoices/:id/payments", s.ListInvoicePayments)
	api.POST("/invoices/:id/payments", s.RecordInvoicePayment)
	api.GET("/invoices/:id/document", s.DownloadInvoiceDocument)
	api.POST("/invoices/:id/document", s.RenderInvoiceDocument)

	// -------- Proposals --------
	api.GET("/proposals", s.ListProposals)
	api.POST("/proposals", s.CreateProposal)
	api.GET("/proposals/:id", s.GetProposalByID)
	api.PUT("/proposals/:id", s.UpdateProposal)
	api.POST("/proposals/:id/send", s.MarkProposalSent)
	api.POST("/proposals/:id/approve", s.ApproveProposal)
	api.POST("/proposals/:id/reject", s.RejectProposal)
	api.GET("/proposals/:id/document", s.DownloadProposalDocument)
	api.POST("/proposals/:id/document", s.RenderProposalDocument)

	// -------- Email --------
	api.GET("/email/settings", s.GetEmailSettings)
	api.PUT("/email/settings", s.UpdateEmailSettings)
	api.GET("/email/templates/:type", s.GetEmailTemplate)
	api.PUT("/email/templates/:type", s.UpdateEmailTemplate)
	api.GET("/email/history", s.ListEmailHistory)
	api.POST("/email/send-invoice", s.SendInvoiceEmail)
	api.POST("/email/send-proposal", s.SendProposalEmail)
	api.POST("/email/test", s.SendTestEmail)

	// -------- Document presets --------
	api.GET("/document-templates", s.ListDocumentPresets)
	api.POST("/document-templates", s.SaveDocumentPreset)
	api.DELETE("/document-templates/:key", s.DeleteDocumentPreset)

	// -------- Proposal drafting --------
	api.POST("/generate-proposal", s.GenerateProposalDraft)
}
