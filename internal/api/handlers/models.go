package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/pkg/dto"
)

type ModelHandler struct {
	catalog      *catalog.Catalog
	defaultModel string
}

func NewModelHandler(c *catalog.Catalog, defaultModel string) *ModelHandler {
	return &ModelHandler{catalog: c, defaultModel: defaultModel}
}

func (h *ModelHandler) List(c *gin.Context) {
	profiles := h.catalog.Models()
	resp := make([]dto.ModelResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, h.toResponse(p))
	}
	c.JSON(http.StatusOK, dto.ModelListResponse{Models: resp, Total: len(resp)})
}

func (h *ModelHandler) Get(c *gin.Context) {
	p, ok := h.catalog.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}
	c.JSON(http.StatusOK, h.toResponse(p))
}

func (h *ModelHandler) toResponse(p catalog.Profile) dto.ModelResponse {
	return dto.ModelResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Speed:       string(p.Speed),
		Accuracy:    string(p.Accuracy),
		Default:     p.ID == h.defaultModel,
	}
}
