package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutriplan-backend/internal/http/response"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/catalog"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
	"github.com/yungbote/nutriplan-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/systems/:systemId/foods?country=&state=&group=
func (h *CatalogHandler) List(c *gin.Context) {
	systemID := c.Param("systemId")
	items, err := h.catalog.Catalog(c.Request.Context(), systemID, catalog.Filter{
		CountryCode: c.Query("country"),
		StateCode:   c.Query("state"),
	})
	if err != nil {
		response.RespondErr(c, err, "load_catalog_failed")
		return
	}
	if g := groupcode.GroupCode(groupcode.Normalize(c.Query("group"))); g != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.GroupCode == g {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	response.RespondOK(c, gin.H{
		"system_id": systemID,
		"count":     len(items),
		"foods":     items,
	})
}
