package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aishopping/backend/internal/domain"
	"github.com/aishopping/backend/internal/infrastructure/httpcall"
	"github.com/aishopping/backend/internal/usecase"
)

const (
	serviceName    = "aishopping-backend"
	serviceVersion = "1.0.0"

	// maxImageBytes caps uploaded image size
	maxImageBytes = 10 << 20
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// IdentifyService is the identification pipeline the handler depends on
type IdentifyService interface {
	Identify(ctx context.Context, image []byte, mimeType string) (*domain.IdentificationResult, error)
}

// OfferService is the offer aggregation pipeline the handler depends on
type OfferService interface {
	Aggregate(ctx context.Context, opts usecase.OfferOptions) ([]domain.Offer, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	identify     IdentifyService
	offers       OfferService
	defaultCount int
}

// NewHandler creates a new HTTP handler
func NewHandler(identify IdentifyService, offers OfferService, defaultCount int) *Handler {
	if defaultCount <= 0 {
		defaultCount = 20
	}
	return &Handler{
		identify:     identify,
		offers:       offers,
		defaultCount: defaultCount,
	}
}

// Root returns basic service info
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    serviceName,
		"status":  "ok",
		"health":  "/health",
		"version": "/version",
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Version returns the service version
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": serviceVersion,
	})
}

// Identify handles product identification from an uploaded image
func (h *Handler) Identify(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds maximum size"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	if !allowedImageTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported image type %q (png, jpeg, webp)", mimeType)})
		return
	}

	result, err := h.identify.Identify(c.Request.Context(), image, mimeType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Offers handles offer aggregation requests
func (h *Handler) Offers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	count := h.defaultCount
	if raw := c.Query("num"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "num must be an integer in [1,100]"})
			return
		}
		count = parsed
	}

	includeMembership, _ := strconv.ParseBool(c.DefaultQuery("include_membership", "false"))

	offers, err := h.offers.Aggregate(c.Request.Context(), usecase.OfferOptions{
		Query:             query,
		Count:             count,
		IncludeMembership: includeMembership,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.OffersResult{Query: query, Offers: offers})
}

// writeError maps every typed condition to a deterministic status and a
// structured diagnostic payload. Credentials are redacted; nothing surfaces as
// an opaque failure.
func writeError(c *gin.Context, err error) {
	message := httpcall.RedactSecrets(err.Error())

	var rateLimitErr *domain.RateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		if rateLimitErr.RetryAfter > 0 {
			seconds := int(rateLimitErr.RetryAfter.Seconds() + 0.5)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": message, "retry_after_seconds": seconds})
			return
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": message})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": message})
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": message})
	case errors.Is(err, domain.ErrMalformed), errors.Is(err, domain.ErrExtraction), errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": message})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
