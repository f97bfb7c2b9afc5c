package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type LeadHandlersParams struct {
	fx.In

	LeadService *biz.LeadService
}

func NewLeadHandlers(params LeadHandlersParams) *LeadHandlers {
	return &LeadHandlers{
		LeadService: params.LeadService,
	}
}

type LeadHandlers struct {
	LeadService *biz.LeadService
}

type LeadRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	SourcePath string `json:"sourcePath"`
}

type VisitRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// CreateLead captures a contact-form submission.
func (h *LeadHandlers) CreateLead(c *gin.Context) {
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	lead, err := h.LeadService.CreateLead(c.Request.Context(), biz.CreateLeadInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		SourcePath: req.SourcePath,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"lead": lead})
}

// RecordVisit stores one page view for the calling visitor.
func (h *LeadHandlers) RecordVisit(c *gin.Context) {
	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	visitorID, _ := contexts.GetVisitorID(c.Request.Context())

	err := h.LeadService.RecordVisit(c.Request.Context(), biz.RecordVisitInput{
		VisitorID: visitorID,
		Path:      req.Path,
		Referrer:  req.Referrer,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{})
}

// ListLeads returns captured leads.
func (h *LeadHandlers) ListLeads(c *gin.Context) {
	leads, err := h.LeadService.ListLeads(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"leads": leads})
}

// ListVisits returns recent visits.
func (h *LeadHandlers) ListVisits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	visits, err := h.LeadService.ListVisits(c.Request.Context(), limit)
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"visits": visits})
}
