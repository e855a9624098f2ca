package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printquote/internal/catalog"
)

const maxCatalogBytes = 1 << 20 // 1MB is far beyond any realistic catalog

type MaterialsHandler struct {
	catalog *catalog.Store
	logger  *zap.Logger
}

func NewMaterialsHandler(store *catalog.Store, logger *zap.Logger) *MaterialsHandler {
	return &MaterialsHandler{catalog: store, logger: logger}
}

func (h *MaterialsHandler) GetMaterials(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Snapshot())
}

// ReplaceMaterials overwrites the whole catalog document. A payload that fails
// to parse or validate is rejected and the persisted catalog stays as it was.
func (h *MaterialsHandler) ReplaceMaterials(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCatalogBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	cat, err := h.catalog.Replace(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("catalog replaced", zap.Int("materials", len(cat.Materials)))
	c.JSON(http.StatusOK, cat)
}
