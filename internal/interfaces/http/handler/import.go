package handler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/catalogimport"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DefaultMaxUploadSize caps catalog files at 10MB
const DefaultMaxUploadSize int64 = 10 << 20

// CatalogImporter imports or previews a stored upload. Both remove the
// upload when they finish.
type CatalogImporter interface {
	Import(ctx context.Context, key string, by catalogimport.Uploader) (*catalogimport.Result, error)
	Preview(ctx context.Context, key string) (*csvimport.Statistics, error)
}

// UploadSaver stores an uploaded file and returns its key
type UploadSaver interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// ImportHandler accepts catalog CSV uploads
type ImportHandler struct {
	BaseHandler
	importer CatalogImporter
	uploads  UploadSaver
	maxSize  int64
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importer CatalogImporter, uploads UploadSaver, maxSize int64) *ImportHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &ImportHandler{importer: importer, uploads: uploads, maxSize: maxSize}
}

// MaxSize returns the accepted upload size
func (h *ImportHandler) MaxSize() int64 {
	return h.maxSize
}

// RegisterRoutes mounts the import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/products/upload", h.Upload)
	rg.POST("/import/products/preview", h.Preview)
}

// Upload godoc
// @Summary      Import products
// @Description  Imports a Shopify-format product CSV. Vendors import into their own store; admins may name any vendor in the Vendor column.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Product CSV"
// @Success      200 {object} dto.Response{data=catalogimport.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/products/upload [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	by, ok := h.uploader(c)
	if !ok {
		return
	}
	key, ok := h.receive(c)
	if !ok {
		return
	}
	result, err := h.importer.Import(c.Request.Context(), key, by)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.L(c.Request.Context()).Info("catalog imported",
		zap.Int("products", result.ImportedProducts),
		zap.Int("variants", result.ImportedVariants),
		zap.Int("errors", result.TotalErrors),
	)
	h.Success(c, result)
}

// Preview godoc
// @Summary      Preview a product import
// @Description  Parses a product CSV and reports what an import would create without writing anything
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Product CSV"
// @Success      200 {object} dto.Response{data=csvimport.Statistics}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/products/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	key, ok := h.receive(c)
	if !ok {
		return
	}
	stats, err := h.importer.Preview(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// uploader identifies the caller from the JWT claims or answers 401
func (h *ImportHandler) uploader(c *gin.Context) (catalogimport.Uploader, bool) {
	id, ok := h.userID(c)
	if !ok {
		return catalogimport.Uploader{}, false
	}
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.ErrorWithCode(c, shared.CodeUnauthorized, "Authentication required")
		return catalogimport.Uploader{}, false
	}
	return catalogimport.Uploader{UserID: id, Role: claims.Role}, true
}

// receive validates the multipart upload and stores it
func (h *ImportHandler) receive(c *gin.Context) (string, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.BindError(c, err)
		return "", false
	}
	if header.Size > h.maxSize {
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, fmt.Sprintf("File exceeds the %dMB limit", h.maxSize>>20))
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		h.ErrorWithCode(c, shared.CodeInvalidInput, "Only .csv files are accepted")
		return "", false
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("open upload: %w", err))
		return "", false
	}
	defer f.Close()

	key, err := h.uploads.Save(c.Request.Context(), header.Filename, f)
	if err != nil {
		h.HandleError(c, fmt.Errorf("store upload: %w", err))
		return "", false
	}
	return key, true
}
