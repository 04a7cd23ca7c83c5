package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	"github.com/smallfirm/fakturo/pkg/db/pagination"
)

type invoiceItemPayload struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitType    string          `json:"unit_type"`
}

type invoiceTaxPayload struct {
	Enabled *bool           `json:"enabled,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Name    string          `json:"name"`
}

type createInvoiceRequest struct {
	Kind      string               `json:"kind"`
	ClientID  *string              `json:"client_id,omitempty"`
	IssueDate string               `json:"issue_date,omitempty"`
	DueDate   string               `json:"due_date,omitempty"`
	TermsDays *int                 `json:"terms_days,omitempty"`
	Currency  string               `json:"currency,omitempty"`
	Tax       invoiceTaxPayload    `json:"tax"`
	Items     []invoiceItemPayload `json:"items"`
	Notes     string               `json:"notes"`
}

type updateInvoiceRequest struct {
	IssueDate *string               `json:"issue_date,omitempty"`
	DueDate   *string               `json:"due_date,omitempty"`
	TermsDays *int                  `json:"terms_days,omitempty"`
	Currency  *string               `json:"currency,omitempty"`
	Tax       *invoiceTaxPayload    `json:"tax,omitempty"`
	Items     *[]invoiceItemPayload `json:"items,omitempty"`
	Notes     *string               `json:"notes,omitempty"`
}

func mapItemInputs(items []invoiceItemPayload) []invoicedomain.ItemInput {
	mapped := make([]invoicedomain.ItemInput, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitType:    item.UnitType,
		})
	}
	return mapped
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseOptionalDate(req.IssueDate)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateRequest{
		Kind:      invoicedomain.DocumentKind(strings.TrimSpace(req.Kind)),
		ClientID:  req.ClientID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		TermsDays: req.TermsDays,
		Currency:  strings.TrimSpace(req.Currency),
		Tax: invoicedomain.TaxInput{
			Enabled: req.Tax.Enabled,
			Rate:    req.Tax.Rate,
			Name:    req.Tax.Name,
		},
		Items: mapItemInputs(req.Items),
		Notes: req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Kind     string `form:"kind"`
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
		Query    string `form:"q"`
		Trashed  bool   `form:"trashed"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListRequest{
		ListFilter: invoicedomain.ListFilter{
			Kind:     invoicedomain.DocumentKind(strings.TrimSpace(query.Kind)),
			Status:   invoicedomain.InvoiceStatus(strings.TrimSpace(query.Status)),
			ClientID: strings.TrimSpace(query.ClientID),
			Query:    strings.TrimSpace(query.Query),
			Trashed:  query.Trashed,
		},
		Page: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := invoicedomain.UpdateRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		TermsDays: req.TermsDays,
		Currency:  req.Currency,
		Notes:     req.Notes,
	}
	if req.IssueDate != nil {
		parsed, err := parseOptionalDate(*req.IssueDate)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
			return
		}
		update.IssueDate = parsed
	}
	if req.DueDate != nil {
		parsed, err := parseOptionalDate(*req.DueDate)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		update.DueDate = parsed
	}
	if req.Tax != nil {
		update.Tax = &invoicedomain.TaxInput{
			Enabled: req.Tax.Enabled,
			Rate:    req.Tax.Rate,
			Name:    req.Tax.Name,
		}
	}
	if req.Items != nil {
		items := mapItemInputs(*req.Items)
		update.Items = &items
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkSent(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConvertQuote(c *gin.Context) {
	resp, err := s.invoiceSvc.ConvertQuote(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TrashInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.invoiceSvc.Trash(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "trashed": true}})
}

func (s *Server) RestoreInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.invoiceSvc.Restore(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "trashed": false}})
}

func (s *Server) InvoiceEvents(c *gin.Context) {
	resp, err := s.invoiceSvc.Events(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) InvoicePDF(c *gin.Context) {
	ctx := c.Request.Context()

	inv, err := s.invoiceSvc.GetByID(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	bp, err := s.profileSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfProvider.RenderDocument(ctx, bp, inv)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.DocumentNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

type emailInvoiceRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) EmailInvoice(c *gin.Context) {
	ctx := c.Request.Context()

	var req emailInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.GetByID(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	to := strings.TrimSpace(req.To)
	if to == "" {
		to = strings.TrimSpace(inv.ClientEmail)
	}
	if to == "" {
		AbortWithError(c, newValidationError("to", "invalid_recipient", "no recipient address"))
		return
	}

	bp, err := s.profileSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	doc, err := s.pdfProvider.RenderDocument(ctx, bp, inv)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachment, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = fmt.Sprintf("%s %s from %s", documentLabel(inv.Kind), inv.DocumentNumber, bp.CompanyName)
	}

	body := invoiceEmailBody(bp, inv, req.Message)
	filename := inv.DocumentNumber + ".pdf"
	if err := s.mailProvider.SendWithAttachment(ctx, []string{to}, subject, body, filename, attachment); err != nil {
		AbortWithError(c, err)
		return
	}

	// Draft documents become sent once they leave the building.
	if inv.Status == invoicedomain.StatusDraft {
		if inv, err = s.invoiceSvc.MarkSent(ctx, inv.ID.String()); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sent_to": to, "invoice": inv}})
}

func documentLabel(kind invoicedomain.DocumentKind) string {
	if kind == invoicedomain.KindQuote {
		return "Quote"
	}
	return "Invoice"
}
