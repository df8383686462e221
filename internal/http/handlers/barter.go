package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/http/response"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

type BarterHandler struct {
	log           *logger.Logger
	barterService services.BarterService
}

func NewBarterHandler(log *logger.Logger, barterService services.BarterService) *BarterHandler {
	return &BarterHandler{log: log.With("handler", "BarterHandler"), barterService: barterService}
}

// POST /barters/create
// body: { "userData": {"id": "..."}, "formData": {...}, "barterType": "seed" }
func (bh *BarterHandler) Create(c *gin.Context) {
	var req services.BarterCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	b, err := bh.barterService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, bh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusCreated, gin.H{"barter": b})
}

// GET /barters/, /barters/:type/, /barters/:type/:id/
// ?active=true drops expired listings.
func (bh *BarterHandler) Retrieve(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	res, err := bh.barterService.Retrieve(c.Request.Context(), c.Param("type"), c.Param("id"), activeOnly)
	if err != nil {
		fail(c, bh.log, err)
		return
	}
	if res.Barter != nil {
		response.RespondOK(c, gin.H{"barter": res.Barter})
		return
	}
	response.RespondOK(c, gin.H{"barters": res.Barters})
}

// POST /barters/update/:type/:id/
// body: the listing fields to change.
func (bh *BarterHandler) Update(c *gin.Context) {
	var form barter.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	b, err := bh.barterService.Update(c.Request.Context(), c.Param("type"), c.Param("id"), &form)
	if err != nil {
		fail(c, bh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusAccepted, gin.H{"barter": b})
}

// POST /barters/delete/:type/:id/
func (bh *BarterHandler) Delete(c *gin.Context) {
	b, err := bh.barterService.Delete(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		fail(c, bh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusAccepted, gin.H{"barter": b})
}
