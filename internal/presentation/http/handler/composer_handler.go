package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

// ComposerHandler exposes the bill composer of a session
type ComposerHandler struct {
	composerService *service.ComposerService
}

func NewComposerHandler(composerService *service.ComposerService) *ComposerHandler {
	return &ComposerHandler{composerService: composerService}
}

// OpenSession starts a session and returns its token with the empty draft
func (h *ComposerHandler) OpenSession(c *gin.Context) {
	session, err := h.composerService.OpenSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Composer session opened", session)
}

func (h *ComposerHandler) CloseSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.composerService.CloseSession(c.Request.Context(), sid); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Composer session closed", nil)
}

func (h *ComposerHandler) GetDraft(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.composerService.GetDraft(c.Request.Context(), sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft retrieved successfully", view)
}

// Discard replaces the draft with an empty one
func (h *ComposerHandler) Discard(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.composerService.Discard(c.Request.Context(), sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft discarded", view)
}

func (h *ComposerHandler) AddItem(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req request.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.composerService.AddProduct(c.Request.Context(), sid, req.ProductID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added", view)
}

func (h *ComposerHandler) RemoveItem(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.composerService.RemoveItem(c.Request.Context(), sid, c.Param("product_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed", view)
}

type valueEdit func(ctx context.Context, sessionID uuid.UUID, value string) (*service.DraftView, error)

// editValue binds {"value": ...} and applies it with edit
func (h *ComposerHandler) editValue(c *gin.Context, message string, edit valueEdit) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req request.ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := edit(c.Request.Context(), sid, req.Value.String())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, view)
}

func (h *ComposerHandler) SetQuantity(c *gin.Context) {
	ref := c.Param("product_id")
	h.editValue(c, "Quantity updated", func(ctx context.Context, sid uuid.UUID, value string) (*service.DraftView, error) {
		return h.composerService.SetQuantity(ctx, sid, ref, value)
	})
}

func (h *ComposerHandler) SetUnitPrice(c *gin.Context) {
	ref := c.Param("product_id")
	h.editValue(c, "Price updated", func(ctx context.Context, sid uuid.UUID, value string) (*service.DraftView, error) {
		return h.composerService.SetUnitPrice(ctx, sid, ref, value)
	})
}

func (h *ComposerHandler) SetPaymentMethod(c *gin.Context) {
	h.editValue(c, "Payment method updated", h.composerService.SetPaymentMethod)
}

func (h *ComposerHandler) SetTax(c *gin.Context) {
	h.editValue(c, "Tax updated", h.composerService.SetTax)
}

func (h *ComposerHandler) SetDiscount(c *gin.Context) {
	h.editValue(c, "Discount updated", h.composerService.SetDiscount)
}

func (h *ComposerHandler) SelectCustomer(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req request.SelectCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.composerService.SelectCustomer(c.Request.Context(), sid, req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer selected", view)
}

// Submit turns the draft into a bill
func (h *ComposerHandler) Submit(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.composerService.Submit(c.Request.Context(), sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", result)
}
