// README: Admin handlers for discount rules and transit network reference data.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mobility-pricing/internal/modules/discountrule"
	"mobility-pricing/internal/modules/network"
)

type RuleAdmin interface {
	Create(ctx context.Context, cmd discountrule.CreateCommand) (*discountrule.Rule, error)
	List(ctx context.Context) ([]discountrule.Rule, error)
	Delete(ctx context.Context, id int64) error
}

type NetworkAdmin interface {
	CreateLine(ctx context.Context, cmd network.CreateLineCommand) (*network.TransportLine, error)
	ListLines(ctx context.Context) ([]network.TransportLine, error)
	CreateSection(ctx context.Context, cmd network.CreateSectionCommand) (*network.FareSection, error)
	ListSections(ctx context.Context, lineID int64) ([]network.FareSection, error)
	CreateZone(ctx context.Context, cmd network.CreateZoneCommand) (*network.Zone, error)
	ListZones(ctx context.Context) ([]network.Zone, error)
}

type AdminHandler struct {
	rules   RuleAdmin
	network NetworkAdmin
}

func NewAdminHandler(rules RuleAdmin, net NetworkAdmin) *AdminHandler {
	return &AdminHandler{rules: rules, network: net}
}

func (h *AdminHandler) CreateRule(c *gin.Context) {
	var cmd discountrule.CreateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, rule)
}

func (h *AdminHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(rules))
}

func (h *AdminHandler) DeleteRule(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.rules.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) CreateLine(c *gin.Context) {
	var cmd network.CreateLineCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	line, err := h.network.CreateLine(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, line)
}

func (h *AdminHandler) ListLines(c *gin.Context) {
	lines, err := h.network.ListLines(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(lines))
}

func (h *AdminHandler) CreateSection(c *gin.Context) {
	var cmd network.CreateSectionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	section, err := h.network.CreateSection(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, section)
}

// ListSections accepts an optional ?lineId= filter.
func (h *AdminHandler) ListSections(c *gin.Context) {
	var lineID int64
	if raw := c.Query("lineId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			writeError(c, http.StatusBadRequest, "invalid lineId")
			return
		}
		lineID = v
	}
	sections, err := h.network.ListSections(c.Request.Context(), lineID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(sections))
}

func (h *AdminHandler) CreateZone(c *gin.Context) {
	var cmd network.CreateZoneCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	zone, err := h.network.CreateZone(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, zone)
}

func (h *AdminHandler) ListZones(c *gin.Context) {
	zones, err := h.network.ListZones(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(zones))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
