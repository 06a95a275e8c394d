package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockbook/internal/models"
	"stockbook/internal/portfolio"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.SnapshotService
	log *logrus.Logger
}

func NewHandler(svc *service.SnapshotService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.GET("/dashboard", h.GetDashboard)
	r.GET("/stocks/:symbol/metrics", h.GetStockMetrics)
	r.POST("/refresh", h.PostRefresh)

	r.GET("/stocks", h.ListStocks)
	r.GET("/trades", h.ListTrades)
	r.GET("/dividends", h.ListDividends)
	r.GET("/bonus", h.ListBonus)

	r.POST("/stocks", h.PostStock)
	r.POST("/trades", h.PostTrade)
	r.POST("/dividends", h.PostDividend)
	r.POST("/bonus", h.PostBonus)
}

type StockRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Sector string `json:"sector"`
}

type TradeRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	Date           string      `json:"date"`
	Type           string      `json:"type" binding:"required"`
	Symbol         string      `json:"symbol" binding:"required"`
	Note           string      `json:"note"`
	Quantity       json.Number `json:"quantity" binding:"required"`
	UnitPrice      json.Number `json:"unit_price" binding:"required"`
}

type DividendRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	Date           string      `json:"date"`
	Symbol         string      `json:"symbol" binding:"required"`
	Note           string      `json:"note"`
	Amount         json.Number `json:"amount" binding:"required"`
}

type BonusRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	Date           string      `json:"date"`
	Symbol         string      `json:"symbol" binding:"required"`
	Note           string      `json:"note"`
	Quantity       json.Number `json:"quantity" binding:"required"`
}

func (h *Handler) GetDashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, "get dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) GetStockMetrics(c *gin.Context) {
	sym := models.NewSymbol(c.Param("symbol"))
	s, err := h.svc.StockDetail(c.Request.Context(), sym)
	if err != nil {
		h.fail(c, "get stock metrics", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) PostRefresh(c *gin.Context) {
	snap, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fetched_at": snap.FetchedAt,
		"stocks":     len(snap.Stocks),
		"trades":     len(snap.Trades),
		"dividends":  len(snap.Dividends),
		"bonus":      len(snap.Bonus),
	})
}

func (h *Handler) ListStocks(c *gin.Context) {
	h.list(c, func(s models.Snapshot) any { return portfolio.StockList(s) })
}

func (h *Handler) ListTrades(c *gin.Context) {
	h.list(c, func(s models.Snapshot) any { return portfolio.TradeList(s) })
}

func (h *Handler) ListDividends(c *gin.Context) {
	h.list(c, func(s models.Snapshot) any { return portfolio.DividendList(s) })
}

func (h *Handler) ListBonus(c *gin.Context) {
	h.list(c, func(s models.Snapshot) any { return portfolio.BonusList(s) })
}

func (h *Handler) list(c *gin.Context, view func(models.Snapshot) any) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, view(snap))
}

func (h *Handler) PostStock(c *gin.Context) {
	var req StockRequest
	if !h.bind(c, &req) {
		return
	}
	st := models.Stock{Symbol: models.NewSymbol(req.Symbol), Name: req.Name, Sector: req.Sector}
	if err := h.svc.AddStock(c.Request.Context(), st); err != nil {
		h.fail(c, "add stock", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) PostTrade(c *gin.Context) {
	var req TradeRequest
	if !h.bind(c, &req) {
		return
	}
	typ, ok := models.ParseTradeType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be Buy or Sell"})
		return
	}
	qty, ok := h.parseDecimal(c, "quantity", req.Quantity)
	if !ok {
		return
	}
	price, ok := h.parseDecimal(c, "unit_price", req.UnitPrice)
	if !ok {
		return
	}
	t := models.Trade{Date: req.Date, Type: typ, Symbol: models.NewSymbol(req.Symbol), Note: req.Note, Quantity: qty, UnitPrice: price}
	ctx := service.WithIdempotencyKey(c.Request.Context(), req.IdempotencyKey)
	if err := h.svc.RecordTrade(ctx, t); err != nil {
		h.fail(c, "record trade", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (h *Handler) PostDividend(c *gin.Context) {
	var req DividendRequest
	if !h.bind(c, &req) {
		return
	}
	amount, ok := h.parseDecimal(c, "amount", req.Amount)
	if !ok {
		return
	}
	d := models.Dividend{Date: req.Date, Symbol: models.NewSymbol(req.Symbol), Note: req.Note, Amount: amount}
	ctx := service.WithIdempotencyKey(c.Request.Context(), req.IdempotencyKey)
	if err := h.svc.RecordDividend(ctx, d); err != nil {
		h.fail(c, "record dividend", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (h *Handler) PostBonus(c *gin.Context) {
	var req BonusRequest
	if !h.bind(c, &req) {
		return
	}
	qty, ok := h.parseDecimal(c, "quantity", req.Quantity)
	if !ok {
		return
	}
	b := models.BonusIssue{Date: req.Date, Symbol: models.NewSymbol(req.Symbol), Note: req.Note, Quantity: qty}
	ctx := service.WithIdempotencyKey(c.Request.Context(), req.IdempotencyKey)
	if err := h.svc.RecordBonus(ctx, b); err != nil {
		h.fail(c, "record bonus", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) parseDecimal(c *gin.Context, field string, n json.Number) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		h.log.Warnf("invalid %s: %v", field, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field + " format"})
		return decimal.Zero, false
	}
	return v, true
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidRecord), errors.Is(err, service.ErrInsufficientHoldings):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateStock):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnknownStock):
		status = http.StatusNotFound
		if c.Request.Method == http.MethodPost {
			status = http.StatusUnprocessableEntity
		}
	case errors.Is(err, service.ErrStore):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s failed: %v", op, err)
		c.JSON(status, gin.H{"error": op + " failed"})
		return
	}
	h.log.Warnf("%s rejected: %v", op, err)
	c.JSON(status, gin.H{"error": err.Error()})
}
