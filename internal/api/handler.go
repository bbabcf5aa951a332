package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/models"
	"github.com/ameedanxari/menumaker-sub002/internal/service"
	"github.com/ameedanxari/menumaker-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService  *service.OrderService
	statusService *service.StatusService
	couponService *service.CouponService
	menuService   *service.MenuService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	statusService *service.StatusService,
	couponService *service.CouponService,
	menuService *service.MenuService,
) *Handler {
	return &Handler{
		orderService:  orderService,
		statusService: statusService,
		couponService: couponService,
		menuService:   menuService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/status", h.transitionOrder)
		v1.GET("/businesses/:id/orders", h.listBusinessOrders)
		v1.POST("/coupons/validate", h.previewCoupon)
		v1.GET("/menus/:id", h.getMenu)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var in service.OrderCreateInput

	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, items, err := h.orderService.CreateOrder(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

type transitionRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Actor  string             `json:"actor" binding:"required"`
}

// transitionOrder drives the order status state machine
func (h *Handler) transitionOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.statusService.Transition(c.Request.Context(), orderID, req.Status, req.Actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// listBusinessOrders lists a business's orders, filterable by status
func (h *Handler) listBusinessOrders(c *gin.Context) {
	businessID, ok := pathID(c)
	if !ok {
		return
	}

	status := models.OrderStatus(c.Query("status"))
	orders, err := h.orderService.GetOrdersByBusiness(c.Request.Context(), businessID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// previewCoupon validates a coupon against a cart without redeeming it
func (h *Handler) previewCoupon(c *gin.Context) {
	var in service.CouponPreviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.couponService.Preview(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}

	// An invalid coupon is a valid preview outcome, not an HTTP error.
	c.JSON(http.StatusOK, result)
}

// getMenu serves the published menu snapshot
func (h *Handler) getMenu(c *gin.Context) {
	menuID, ok := pathID(c)
	if !ok {
		return
	}

	snapshot, err := h.menuService.GetMenu(c.Request.Context(), menuID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps fault codes to HTTP statuses. Anything without a
// code is a system fault and stays opaque.
func respondError(c *gin.Context, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	status := http.StatusUnprocessableEntity
	if !fe.ClientCorrectable() {
		status = http.StatusInternalServerError
	} else {
		switch fe.Code {
		case fault.CodeMenuNotFound, fault.CodeDishNotFound, fault.CodeOrderNotFound:
			status = http.StatusNotFound
		case fault.CodeInvalidTransition, fault.CodeOrderTerminal:
			status = http.StatusConflict
		}
	}

	c.JSON(status, gin.H{
		"error": fe.Message,
		"code":  fe.Code,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
