package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/earnlift/ledger/internal/ledger/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server serves the ledger HTTP API.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the gin engine, registers all routes behind the JWT
// middleware, and prepares an http.Server on the given port.
func NewServer(port int, jwtSecret string, handler *LedgerHandler, logger *zap.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	registerRoutes(engine, jwtSecret, handler)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
		logger: logger,
	}
}

func registerRoutes(engine *gin.Engine, jwtSecret string, h *LedgerHandler) {
	v1 := engine.Group("/v1", auth.Middleware(jwtSecret))

	companies := v1.Group("/companies")
	{
		companies.POST("", h.RegisterCompany)
		companies.GET("/:id", h.GetCompany)
		companies.POST("/:id/status", h.SetCompanyStatus)
		companies.POST("/migrate", h.MigrateCompanyIdentity)
		companies.POST("/:id/liquidity", h.AddCompanyLiquidity)
		companies.POST("/:id/liquidity/unlock", h.RemoveCompanyLiquidity)
		companies.POST("/:id/rewards/withdraw", h.WithdrawCompanyReward)
	}

	employees := v1.Group("/employees")
	{
		employees.POST("", h.RegisterEmployee)
		employees.GET("/:id", h.GetEmployee)
		employees.POST("/:id/days-worked", h.UpdateDaysWorked)
		employees.POST("/:id/settlement-preference", h.SetSettlementPreference)
		employees.GET("/:id/eligible", h.EligibleAdvance)
		employees.POST("/:id/withdraw", h.WithdrawSalary)
	}

	investors := v1.Group("/investors")
	{
		investors.GET("/:id", h.GetInvestor)
		investors.POST("/:id/deposits", h.AddInvestorLiquidity)
		investors.POST("/:id/withdrawals", h.RemoveInvestorLiquidity)
		investors.POST("/:id/rewards/withdraw", h.WithdrawInvestorReward)
		investors.GET("/:id/rewards/pending", h.PendingInvestorReward)
	}

	v1.GET("/pool", h.PoolStats)
	v1.GET("/fees", h.GetFeeConfig)
	v1.POST("/fees", h.SetFeeConfig)
	v1.POST("/platform/withdraw", h.WithdrawPlatformFee)
	v1.GET("/receipts/:id", h.ListReceipts)

	admins := v1.Group("/admins")
	{
		admins.POST("", h.AddAdmin)
		admins.DELETE("/:id", h.RemoveAdmin)
	}
}

// Start binds the listener and begins serving; it returns only once the
// listener is up, so a bind failure surfaces here rather than in a goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("HTTP server starting", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts down the HTTP server, draining in-flight requests.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
