package handlers

import (
	"net/http"

	"petcare/services/caregiver"
	"petcare/utils"

	"github.com/gin-gonic/gin"
)

type CaregiverHandler struct {
	Service caregiver.CaregiverService
}

func NewCaregiverHandler(svc caregiver.CaregiverService) *CaregiverHandler {
	return &CaregiverHandler{Service: svc}
}

func (h *CaregiverHandler) CreateCaregiver(c *gin.Context) {
	var req caregiver.CreateCaregiverInput
	if !bindJSON(c, &req) {
		return
	}
	cg, err := h.Service.CreateCaregiver(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Caregiver created successfully", cg)
}

func (h *CaregiverHandler) GetCaregiver(c *gin.Context) {
	cg, err := h.Service.GetCaregiver(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", cg)
}

func (h *CaregiverHandler) ListCaregivers(c *gin.Context) {
	list, err := h.Service.ListCaregivers(c.Request.Context(), actor(c), caregiver.ListCaregiversInput{
		StoreID: c.Query("storeId"),
		Status:  c.Query("status"),
		Skill:   c.Query("skill"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", list)
}

func (h *CaregiverHandler) ListAvailable(c *gin.Context) {
	list, err := h.Service.ListAvailable(c.Request.Context(), actor(c), c.Query("storeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", list)
}

func (h *CaregiverHandler) UpdateCaregiver(c *gin.Context) {
	var req caregiver.UpdateCaregiverInput
	if !bindJSON(c, &req) {
		return
	}
	cg, err := h.Service.UpdateCaregiver(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Caregiver updated successfully", cg)
}

type availabilityRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *CaregiverHandler) UpdateAvailability(c *gin.Context) {
	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	cg, err := h.Service.UpdateAvailability(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Availability updated successfully", cg)
}

func (h *CaregiverHandler) DeleteCaregiver(c *gin.Context) {
	if err := h.Service.DeleteCaregiver(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Caregiver deleted successfully", nil)
}
