// Package handlers exposes the ledger over HTTP, bridging the transport
// layer and the accounting core: request DTOs are bound and validated here,
// sentinel errors from the core map onto HTTP status codes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/earnlift/ledger/internal/ledger/auth"
	"github.com/earnlift/ledger/internal/ledger/controller"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerController is the slice of the ledger core the HTTP layer invokes.
type LedgerController interface {
	RegisterCompany(ctx context.Context, caller, id models.Identity, name string) error
	RegisterEmployee(ctx context.Context, caller, id, companyID models.Identity, name string, monthlySalary int64) error
	SetCompanyStatus(ctx context.Context, caller, id models.Identity, status models.CompanyStatus) error
	MigrateCompanyIdentity(ctx context.Context, caller, oldID, newID models.Identity) error
	UpdateDaysWorked(ctx context.Context, caller, employeeID models.Identity, days int64) error
	SetSettlementPreference(ctx context.Context, caller, employeeID models.Identity, preference string) error
	GetCompany(ctx context.Context, id models.Identity) (*models.Company, error)
	GetEmployee(ctx context.Context, id models.Identity) (*models.Employee, error)
	GetInvestor(ctx context.Context, id models.Identity) (*models.Investor, error)
	Receipts(ctx context.Context, to models.Identity) ([]models.Receipt, error)

	SetFeeConfig(ctx context.Context, caller models.Identity, cfg *models.FeeConfig) error
	FeeConfig(ctx context.Context) (*models.FeeConfig, error)

	AddCompanyLiquidity(ctx context.Context, caller, companyID models.Identity, amount int64, externalRef string) error
	RemoveCompanyLiquidity(ctx context.Context, caller, companyID models.Identity, amount int64, externalRef string) error
	AddInvestorLiquidity(ctx context.Context, caller, investorID models.Identity, amount int64, externalRef string) error
	RemoveInvestorLiquidity(ctx context.Context, caller, investorID models.Identity, amount int64, externalRef string) error
	WithdrawCompanyReward(ctx context.Context, caller, companyID models.Identity, externalRef string) error
	WithdrawInvestorReward(ctx context.Context, caller, investorID models.Identity, externalRef string) error
	WithdrawPlatformFee(ctx context.Context, caller, to models.Identity, externalRef string) error
	PendingInvestorReward(ctx context.Context, investorID models.Identity) (int64, error)
	PoolStats(ctx context.Context) (*models.Pool, error)

	EligibleAdvance(ctx context.Context, employeeID models.Identity) (int64, error)
	WithdrawSalary(ctx context.Context, caller models.Identity, req controller.WithdrawalRequest) (*controller.WithdrawalResult, error)
}

// AdminLifecycle grants and revokes the admin capability.
type AdminLifecycle interface {
	AddAdmin(ctx context.Context, caller, identity models.Identity) error
	RemoveAdmin(ctx context.Context, caller, identity models.Identity) error
}

// LedgerHandler provides the gin handlers for all ledger operations.
type LedgerHandler struct {
	service LedgerController
	admins  AdminLifecycle
	logger  *zap.Logger
}

func NewLedgerHandler(service LedgerController, admins AdminLifecycle, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		admins:  admins,
		logger:  logger.Named("http_handler"),
	}
}

// --- request DTOs ---

type registerCompanyRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type registerEmployeeRequest struct {
	ID            string `json:"id" binding:"required"`
	CompanyID     string `json:"company_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	MonthlySalary int64  `json:"monthly_salary"`
}

type companyStatusRequest struct {
	Status models.CompanyStatus `json:"status" binding:"required"`
}

type migrateCompanyRequest struct {
	OldID string `json:"old_id" binding:"required"`
	NewID string `json:"new_id" binding:"required"`
}

type daysWorkedRequest struct {
	Days int64 `json:"days"`
}

type settlementPreferenceRequest struct {
	Preference string `json:"preference"`
}

type feeConfigRequest struct {
	PlatformShare int64 `json:"platform_share"`
	CompanyShare  int64 `json:"company_share"`
	InvestorShare int64 `json:"investor_share"`
	FeeBps        int64 `json:"fee_bps"`
}

type amountRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	ExternalRef string `json:"external_ref"`
}

type externalRefRequest struct {
	ExternalRef string `json:"external_ref"`
}

type platformWithdrawRequest struct {
	To          string `json:"to" binding:"required"`
	ExternalRef string `json:"external_ref"`
}

type withdrawSalaryRequest struct {
	ExternalRef         string `json:"external_ref"`
	MinAcceptableOutput int64  `json:"min_acceptable_output"`
	DeadlineSeconds     int64  `json:"deadline_seconds"`
}

type adminRequest struct {
	Identity string `json:"identity" binding:"required"`
}

// --- companies ---

func (h *LedgerHandler) RegisterCompany(c *gin.Context) {
	var req registerCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.RegisterCompany(c.Request.Context(), auth.CallerFrom(c), models.Identity(req.ID), req.Name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

func (h *LedgerHandler) GetCompany(c *gin.Context) {
	company, err := h.service.GetCompany(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *LedgerHandler) SetCompanyStatus(c *gin.Context) {
	var req companyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.SetCompanyStatus(c.Request.Context(), auth.CallerFrom(c), models.Identity(c.Param("id")), req.Status)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *LedgerHandler) MigrateCompanyIdentity(c *gin.Context) {
	var req migrateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.MigrateCompanyIdentity(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(req.OldID), models.Identity(req.NewID))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.NewID})
}

func (h *LedgerHandler) AddCompanyLiquidity(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.AddCompanyLiquidity(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Amount, req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": req.Amount})
}

func (h *LedgerHandler) RemoveCompanyLiquidity(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.RemoveCompanyLiquidity(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Amount, req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": req.Amount})
}

func (h *LedgerHandler) WithdrawCompanyReward(c *gin.Context) {
	var req externalRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.WithdrawCompanyReward(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// --- employees ---

func (h *LedgerHandler) RegisterEmployee(c *gin.Context) {
	var req registerEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.RegisterEmployee(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(req.ID), models.Identity(req.CompanyID), req.Name, req.MonthlySalary)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

func (h *LedgerHandler) GetEmployee(c *gin.Context) {
	employee, err := h.service.GetEmployee(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *LedgerHandler) UpdateDaysWorked(c *gin.Context) {
	var req daysWorkedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.UpdateDaysWorked(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Days)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": req.Days})
}

func (h *LedgerHandler) SetSettlementPreference(c *gin.Context) {
	var req settlementPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.SetSettlementPreference(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Preference)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *LedgerHandler) EligibleAdvance(c *gin.Context) {
	eligible, err := h.service.EligibleAdvance(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": eligible})
}

func (h *LedgerHandler) WithdrawSalary(c *gin.Context) {
	var req withdrawSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	withdrawal := controller.WithdrawalRequest{
		EmployeeID:          models.Identity(c.Param("id")),
		ExternalRef:         req.ExternalRef,
		MinAcceptableOutput: req.MinAcceptableOutput,
	}
	if req.DeadlineSeconds > 0 {
		withdrawal.Deadline = time.Now().Add(time.Duration(req.DeadlineSeconds) * time.Second)
	}
	result, err := h.service.WithdrawSalary(c.Request.Context(), auth.CallerFrom(c), withdrawal)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- investors ---

func (h *LedgerHandler) GetInvestor(c *gin.Context) {
	investor, err := h.service.GetInvestor(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

func (h *LedgerHandler) AddInvestorLiquidity(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.AddInvestorLiquidity(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Amount, req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposited": req.Amount})
}

func (h *LedgerHandler) RemoveInvestorLiquidity(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.RemoveInvestorLiquidity(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.Amount, req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": req.Amount})
}

func (h *LedgerHandler) WithdrawInvestorReward(c *gin.Context) {
	var req externalRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.WithdrawInvestorReward(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(c.Param("id")), req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *LedgerHandler) PendingInvestorReward(c *gin.Context) {
	pending, err := h.service.PendingInvestorReward(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// --- pool, fees, platform, admins ---

func (h *LedgerHandler) PoolStats(c *gin.Context) {
	pool, err := h.service.PoolStats(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

func (h *LedgerHandler) GetFeeConfig(c *gin.Context) {
	cfg, err := h.service.FeeConfig(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *LedgerHandler) SetFeeConfig(c *gin.Context) {
	var req feeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := &models.FeeConfig{
		PlatformShare: req.PlatformShare,
		CompanyShare:  req.CompanyShare,
		InvestorShare: req.InvestorShare,
		FeeBps:        req.FeeBps,
	}
	if err := h.service.SetFeeConfig(c.Request.Context(), auth.CallerFrom(c), cfg); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *LedgerHandler) WithdrawPlatformFee(c *gin.Context) {
	var req platformWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.WithdrawPlatformFee(c.Request.Context(), auth.CallerFrom(c),
		models.Identity(req.To), req.ExternalRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *LedgerHandler) ListReceipts(c *gin.Context) {
	receipts, err := h.service.Receipts(c.Request.Context(), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (h *LedgerHandler) AddAdmin(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.admins.AddAdmin(c.Request.Context(), auth.CallerFrom(c), models.Identity(req.Identity))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *LedgerHandler) RemoveAdmin(c *gin.Context) {
	err := h.admins.RemoveAdmin(c.Request.Context(), auth.CallerFrom(c), models.Identity(c.Param("id")))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// abortWithError maps core sentinel errors onto HTTP status codes.
func (h *LedgerHandler) abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, e.ErrCompanyNotFound),
		errors.Is(err, e.ErrEmployeeNotFound),
		errors.Is(err, e.ErrInvestorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, e.ErrCompanyExists),
		errors.Is(err, e.ErrCompanyDisabled),
		errors.Is(err, e.ErrOperationInFlight):
		status = http.StatusConflict
	case errors.Is(err, e.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, e.ErrInvalidAmount),
		errors.Is(err, e.ErrInvalidFeeConfig),
		errors.Is(err, e.ErrZeroIdentity):
		status = http.StatusBadRequest
	case errors.Is(err, e.ErrInsufficientLiquidity),
		errors.Is(err, e.ErrInsufficientBalance),
		errors.Is(err, e.ErrTokenNotSupported):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, e.ErrTransferNotAllowed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Ledger operation failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
