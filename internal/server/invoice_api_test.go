package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/smallfirm/fakturo/internal/client/domain"
	clientrepository "github.com/smallfirm/fakturo/internal/client/repository"
	clientservice "github.com/smallfirm/fakturo/internal/client/service"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/config"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	invoicerepository "github.com/smallfirm/fakturo/internal/invoice/repository"
	invoiceservice "github.com/smallfirm/fakturo/internal/invoice/service"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	profilerepository "github.com/smallfirm/fakturo/internal/profile/repository"
	profileservice "github.com/smallfirm/fakturo/internal/profile/service"
	"github.com/smallfirm/fakturo/internal/providers/email"
	"github.com/smallfirm/fakturo/internal/providers/pdf"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
	recurringrepository "github.com/smallfirm/fakturo/internal/recurring/repository"
	recurringservice "github.com/smallfirm/fakturo/internal/recurring/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiFixture struct {
	srv   *Server
	clock *clock.FakeClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.DocumentEvent{},
		&clientdomain.Client{},
		&profiledomain.BusinessProfile{},
		&recurringdomain.Schedule{},
		&recurringdomain.ScheduleItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, time.June, 23, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	profileSvc := profileservice.New(profileservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  profilerepository.Provide(),
	})
	clientSvc := clientservice.New(clientservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  clientrepository.Provide(),
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fc,
		Repo:    invoicerepository.Provide(),
		Clients: clientSvc,
		Profile: profileSvc,
	})
	recurringSvc := recurringservice.New(recurringservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fc,
		Repo:     recurringrepository.Provide(),
		Invoices: invoiceSvc,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{},
		GenID:        node,
		ProfileSvc:   profileSvc,
		ClientSvc:    clientSvc,
		InvoiceSvc:   invoiceSvc,
		RecurringSvc: recurringSvc,
		PDFProvider:  &pdf.NoOpProvider{},
		MailProvider: &email.NoOpProvider{},
	})

	return &apiFixture{srv: srv, clock: fc}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload.Data
}

const minimalInvoiceBody = `{"items":[{"description":"Consulting","quantity":"1","unit_price":"100"}]}`

func TestInvoiceAPILifecycle(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/invoices", minimalInvoiceBody)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	assert.Equal(t, "20250623-1", data["document_number"])
	assert.Equal(t, "draft", data["status"])
	id := data["id"].(string)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/send", id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "sent", decodeData(t, resp)["status"])

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/pay", id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "paid", decodeData(t, resp)["status"])

	// paid documents cannot be cancelled
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/cancel", id), "")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestInvoiceAPIValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/invoices", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/invoices", `{"issue_date":"23/06/2025","items":[{"description":"x","quantity":"1","unit_price":"1"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodGet, "/api/v1/invoices/999999", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestQuoteAPIConversion(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/invoices", `{"kind":"quote","items":[{"description":"Design","quantity":"1","unit_price":"500"}]}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	assert.Equal(t, "Q-20250623-1", data["document_number"])
	id := data["id"].(string)

	// quotes have no payment lifecycle
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/pay", id), "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/convert", id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	converted := decodeData(t, resp)
	assert.Equal(t, "invoice", converted["kind"])
	assert.Equal(t, "20250623-1", converted["document_number"])
}

func TestClientAPICascadeIntoInvoice(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/clients", `{"name":"Globex","email":"ap@globex.example","payment_terms_days":7}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	clientID := decodeData(t, resp)["id"].(string)

	body := fmt.Sprintf(`{"client_id":%q,"items":[{"description":"Support","quantity":"1","unit_price":"250"}]}`, clientID)
	resp = f.do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	assert.Equal(t, "Globex", data["client_name"])
	assert.Contains(t, data["due_date"], "2025-06-30")
}

func TestProfileAPIDefaults(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData(t, resp)
	assert.Equal(t, "EUR", data["default_currency"])

	resp = f.do(t, http.MethodPut, "/api/v1/profile", `{"company_name":"Fakturo GmbH","default_terms_days":14}`)
	require.Equal(t, http.StatusOK, resp.Code)
	data = decodeData(t, resp)
	assert.Equal(t, "Fakturo GmbH", data["company_name"])
	assert.Equal(t, float64(14), data["default_terms_days"])

	resp = f.do(t, http.MethodPut, "/api/v1/profile", `{"default_currency":"euros"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRecurringAPITrigger(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"name":"Hosting","frequency":"monthly","schedule_day":23,"items":[{"description":"Hosting","quantity":"1","unit_price":"49"}]}`
	resp := f.do(t, http.MethodPost, "/api/v1/recurring", body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	id := decodeData(t, resp)["id"].(string)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/recurring/%s/trigger", id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	invoice := decodeData(t, resp)
	assert.Equal(t, "20250623-1", invoice["document_number"])

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/recurring/%s/pause", id), "")
	require.Equal(t, http.StatusOK, resp.Code)

	// a paused schedule cannot be triggered
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/recurring/%s/trigger", id), "")
	assert.Equal(t, http.StatusConflict, resp.Code)
}
