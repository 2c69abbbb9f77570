package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/infrastructure/openfoodfacts"
	"github.com/greenscope/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	serviceName    = "greenscope-backend"
	serviceVersion = "1.0.0"

	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

// ProductCoordinator is the subset of the request coordinator the handlers use
type ProductCoordinator interface {
	Resolve(ctx context.Context, barcode string) (*domain.Product, error)
	Submit(barcode string)
	Refresh(barcode string)
	Latest(barcode string) usecase.Update
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products ProductCoordinator
	messages domain.MessageStore
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(products ProductCoordinator, messages domain.MessageStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		products: products,
		messages: messages,
		logger:   logger.Named("http"),
	}
}

// ProductResponse is a resolved product together with its display rating
type ProductResponse struct {
	*domain.Product
	Rating domain.Rating `json:"rating"`
}

// ScanRequest starts a background resolution
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
	Refresh bool   `json:"refresh,omitempty"`
}

// ScanResponse reports a barcode's current resolution state
type ScanResponse struct {
	Barcode string           `json:"barcode"`
	State   string           `json:"state"`
	Product *ProductResponse `json:"product,omitempty"`
	Error   string           `json:"error,omitempty"`
	Kind    string           `json:"kind,omitempty"`
}

// ScoreResponse is the result of a direct score computation
type ScoreResponse struct {
	Score  float64            `json:"score"`
	Rating domain.Rating      `json:"rating"`
	Inputs domain.ScoreInputs `json:"inputs"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// GetProduct resolves a barcode and waits for the outcome
func (h *Handler) GetProduct(c *gin.Context) {
	barcode := c.Param("barcode")
	if !h.validBarcode(c, barcode) {
		return
	}

	product, err := h.products.Resolve(c.Request.Context(), barcode)
	if err != nil {
		h.writeResolutionError(c, barcode, err)
		return
	}

	c.JSON(http.StatusOK, newProductResponse(product))
}

// StartScan submits a barcode without waiting for the outcome
func (h *Handler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "barcode is required"})
		return
	}

	if !h.validBarcode(c, req.Barcode) {
		return
	}

	if req.Refresh {
		h.products.Refresh(req.Barcode)
	} else {
		h.products.Submit(req.Barcode)
	}

	c.JSON(http.StatusAccepted, newScanResponse(h.products.Latest(req.Barcode)))
}

// GetScan reports the latest state of a barcode's resolution
func (h *Handler) GetScan(c *gin.Context) {
	c.JSON(http.StatusOK, newScanResponse(h.products.Latest(c.Param("barcode"))))
}

// ComputeScore scores caller-supplied signals without a catalog lookup
func (h *Handler) ComputeScore(c *gin.Context) {
	var inputs domain.ScoreInputs
	fields := []struct {
		name string
		dst  *float64
	}{
		{"recyclability", &inputs.Recyclability},
		{"impact", &inputs.Impact},
		{"health", &inputs.Health},
	}

	for _, f := range fields {
		raw, ok := c.GetQuery(f.name)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: f.name + " is required"})
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: f.name + " must be a number"})
			return
		}
		*f.dst = v
	}

	score := usecase.ComputeScoreFromInputs(inputs)
	c.JSON(http.StatusOK, ScoreResponse{
		Score:  score,
		Rating: usecase.RatingFor(score),
		Inputs: inputs,
	})
}

// ListMessages returns a conversation's messages in order
func (h *Handler) ListMessages(c *gin.Context) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxMessageLimit)
	}

	messages, err := h.messages.List(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.String("conversation", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// PostMessage appends a message to a conversation
func (h *Handler) PostMessage(c *gin.Context) {
	var req domain.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content and senderId are required"})
		return
	}

	stored, err := h.messages.Append(c.Request.Context(), &domain.ChatMessage{
		ConversationID: c.Param("id"),
		Content:        req.Content,
		SenderID:       req.SenderID,
		SenderName:     req.SenderName,
		SenderAvatar:   req.SenderAvatar,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("failed to append message", zap.String("conversation", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// validBarcode answers 400 for barcodes that cannot form a catalog path,
// so malformed input never gets a coordinator entry
func (h *Handler) validBarcode(c *gin.Context, barcode string) bool {
	if err := openfoodfacts.ValidateBarcode(barcode); err != nil {
		resErr := usecase.Classify(barcode, err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: resErr.Kind.Message(), Kind: resErr.Kind.String()})
		return false
	}
	return true
}

func (h *Handler) writeResolutionError(c *gin.Context, barcode string, err error) {
	if errors.Is(err, usecase.ErrCoordinatorClosed) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service is shutting down"})
		return
	}

	resErr := usecase.Classify(barcode, err)
	status := statusForKind(resErr.Kind)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("product resolution failed",
			zap.String("barcode", barcode),
			zap.Stringer("kind", resErr.Kind),
			zap.Error(err),
		)
	}

	c.JSON(status, ErrorResponse{Error: resErr.Kind.Message(), Kind: resErr.Kind.String()})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidEndpoint:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func newProductResponse(product *domain.Product) *ProductResponse {
	return &ProductResponse{
		Product: product,
		Rating:  usecase.RatingFor(product.SustainabilityScore),
	}
}

func newScanResponse(u usecase.Update) ScanResponse {
	resp := ScanResponse{Barcode: u.Barcode, State: u.State.String()}
	if u.Product != nil {
		resp.Product = newProductResponse(u.Product)
	}
	if u.Err != nil {
		resp.Error = u.Err.Kind.Message()
		resp.Kind = u.Err.Kind.String()
	}
	return resp
}
