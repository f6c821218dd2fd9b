package handlers

import (
	"net/http"

	"petcare/services/catalog"
	"petcare/utils"

	"github.com/gin-gonic/gin"
)

type ServiceTypeHandler struct {
	Service catalog.CatalogService
}

func NewServiceTypeHandler(svc catalog.CatalogService) *ServiceTypeHandler {
	return &ServiceTypeHandler{Service: svc}
}

func (h *ServiceTypeHandler) CreateServiceType(c *gin.Context) {
	var req catalog.CreateServiceTypeInput
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.Service.CreateServiceType(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Service type created successfully", st)
}

func (h *ServiceTypeHandler) ListServiceTypes(c *gin.Context) {
	list, err := h.Service.ListServiceTypes(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", list)
}

func (h *ServiceTypeHandler) GetServiceType(c *gin.Context) {
	st, err := h.Service.GetServiceType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", st)
}
