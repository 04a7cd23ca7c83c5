package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
)

type scheduleItemPayload struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitType    string          `json:"unit_type"`
}

type createScheduleRequest struct {
	Name     string  `json:"name"`
	ClientID *string `json:"client_id,omitempty"`

	Frequency     string `json:"frequency"`
	ScheduleDay   int    `json:"schedule_day"`
	ScheduleMonth int    `json:"schedule_month"`
	QuarterMonth  int    `json:"quarter_month"`

	StartDate string `json:"start_date,omitempty"`

	Currency  string `json:"currency"`
	TermsDays *int   `json:"terms_days,omitempty"`

	TaxEnabled *bool           `json:"tax_enabled,omitempty"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	TaxName    string          `json:"tax_name"`

	Notes string                `json:"notes"`
	Items []scheduleItemPayload `json:"items"`
}

type updateScheduleRequest struct {
	Name *string `json:"name,omitempty"`

	Frequency     *string `json:"frequency,omitempty"`
	ScheduleDay   *int    `json:"schedule_day,omitempty"`
	ScheduleMonth *int    `json:"schedule_month,omitempty"`
	QuarterMonth  *int    `json:"quarter_month,omitempty"`

	Currency  *string `json:"currency,omitempty"`
	TermsDays *int    `json:"terms_days,omitempty"`

	TaxEnabled *bool            `json:"tax_enabled,omitempty"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxName    *string          `json:"tax_name,omitempty"`

	Notes *string                `json:"notes,omitempty"`
	Items *[]scheduleItemPayload `json:"items,omitempty"`
}

func mapScheduleItemInputs(items []scheduleItemPayload) []recurringdomain.ScheduleItemInput {
	mapped := make([]recurringdomain.ScheduleItemInput, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, recurringdomain.ScheduleItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitType:    item.UnitType,
		})
	}
	return mapped
}

func (s *Server) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}

	resp, err := s.recurringSvc.Create(c.Request.Context(), recurringdomain.CreateScheduleRequest{
		Name:          strings.TrimSpace(req.Name),
		ClientID:      req.ClientID,
		Frequency:     recurringdomain.Frequency(strings.TrimSpace(req.Frequency)),
		ScheduleDay:   req.ScheduleDay,
		ScheduleMonth: req.ScheduleMonth,
		QuarterMonth:  req.QuarterMonth,
		StartDate:     startDate,
		Currency:      strings.TrimSpace(req.Currency),
		TermsDays:     req.TermsDays,
		TaxEnabled:    req.TaxEnabled,
		TaxRate:       req.TaxRate,
		TaxName:       req.TaxName,
		Notes:         req.Notes,
		Items:         mapScheduleItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSchedules(c *gin.Context) {
	var query recurringdomain.ListScheduleRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recurringSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSchedule(c *gin.Context) {
	resp, err := s.recurringSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSchedule(c *gin.Context) {
	var req updateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := recurringdomain.UpdateScheduleRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Name:          req.Name,
		ScheduleDay:   req.ScheduleDay,
		ScheduleMonth: req.ScheduleMonth,
		QuarterMonth:  req.QuarterMonth,
		Currency:      req.Currency,
		TermsDays:     req.TermsDays,
		TaxEnabled:    req.TaxEnabled,
		TaxRate:       req.TaxRate,
		TaxName:       req.TaxName,
		Notes:         req.Notes,
	}
	if req.Frequency != nil {
		freq := recurringdomain.Frequency(strings.TrimSpace(*req.Frequency))
		update.Frequency = &freq
	}
	if req.Items != nil {
		items := mapScheduleItemInputs(*req.Items)
		update.Items = &items
	}

	resp, err := s.recurringSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSchedule(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.recurringSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
}

func (s *Server) PauseSchedule(c *gin.Context) {
	resp, err := s.recurringSvc.Pause(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResumeSchedule(c *gin.Context) {
	resp, err := s.recurringSvc.Resume(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TriggerSchedule(c *gin.Context) {
	resp, err := s.recurringSvc.TriggerNow(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
