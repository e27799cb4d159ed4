package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/service"
)

// AnimalsHandler serves animal records. Purchase, sale and death go through
// the ledger service so the matching entries are written with them.
type AnimalsHandler struct {
	inventory service.InventoryService
	ledger    service.LedgerService
}

func NewAnimalsHandler(inventory service.InventoryService, ledger service.LedgerService) *AnimalsHandler {
	return &AnimalsHandler{inventory: inventory, ledger: ledger}
}

func (h *AnimalsHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var f dto.AnimalFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.inventory.GetAnimals(c.Request.Context(), owner, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimalsHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.GetAnimal(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimalsHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req dto.CreateAnimalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.RecordAnimalPurchase(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AnimalsHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAnimalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.UpdateAnimal(c.Request.Context(), owner, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimalsHandler) SetStatus(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.SetAnimalStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.SetAnimalStatus(c.Request.Context(), owner, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimalsHandler) Sell(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AnimalSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.RecordAnimalSale(c.Request.Context(), owner, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AnimalsHandler) Death(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AnimalDeathRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.RecordAnimalDeath(c.Request.Context(), owner, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimalsHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteAnimal(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
