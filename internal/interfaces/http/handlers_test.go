package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/application/invoicing"
	"github.com/jhoicas/zatca-einvoice/internal/application/offline"
	appsync "github.com/jhoicas/zatca-einvoice/internal/application/sync"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/localstore"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca/signer"
	apphttp "github.com/jhoicas/zatca-einvoice/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type memRemote struct {
	mu      sync.Mutex
	records map[string]*entity.InvoiceRecord
	offline bool
}

func (r *memRemote) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return domain.ErrOffline
	}
	return nil
}

func (r *memRemote) GetByID(_ context.Context, id string) (*entity.InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memRemote) Create(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.records[inv.ID] = &entity.InvoiceRecord{Invoice: *inv, CreatedAt: now, UpdatedAt: now, Version: 1,
		SyncStatus: entity.SyncStatusSynced}
	return nil
}

func (r *memRemote) Update(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Invoice = *inv
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

type stubPDF struct{}

func (stubPDF) GenerateInvoicePDF(_ context.Context, _ *entity.Invoice, _ []byte) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

type apiFixture struct {
	app    *fiber.App
	remote *memRemote
	queue  *offline.Queue
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	log := zerolog.Nop()

	chain, err := localstore.NewChainStateStore(fs, "/state")
	require.NoError(t, err)
	invoices, err := localstore.NewInvoiceStore(fs, "/invoices")
	require.NoError(t, err)
	qs, err := localstore.NewQueueStore(fs, "/queue")
	require.NoError(t, err)
	queue := offline.NewQueue(qs, log)

	hasher := domainzatca.NewHasherService()
	ubl := infrazatca.NewUBLBuilderService()
	svc, err := invoicing.NewService(ctx, invoicing.Deps{
		ChainState: chain,
		Invoices:   invoices,
		Queue:      queue,
		UBL:        ubl,
		PDF:        stubPDF{},
		Hasher:     hasher,
		Stamper:    domainzatca.NewStamperService(signer.NewHashSigner(), hasher),
	}, invoicing.Config{
		PrivateKey: "llave-privada",
		PublicKey:  "llave-publica",
		DefaultSupplier: entity.Supplier{
			Name:      "Bobs Records",
			VATNumber: "310122393500003",
			CRNumber:  "1010010000",
			Address: entity.Address{Street: "King Fahd Rd", BuildingNumber: "1234", CityName: "Riyadh",
				PostalZone: "12345", CountrySubentity: "Riyadh"},
		},
	}, log)
	require.NoError(t, err)

	remote := &memRemote{records: map[string]*entity.InvoiceRecord{}}
	engine := appsync.NewEngine(queue, remote, ubl, log)
	scheduler := appsync.NewScheduler(engine, time.Minute, appsync.Options{
		BatchSize:   10,
		BatchDelay:  -1,
		RetryDelay:  -1,
		MaxRetries:  1,
		CallTimeout: time.Second,
	}, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Invoicing: svc,
		Queue:     queue,
		Scheduler: scheduler,
		JWTSecret: testJWTSecret,
		Logger:    log,
	})
	return &apiFixture{app: app, remote: remote, queue: queue}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const invoiceBody = `{"items":[{"description":"Consulting","quantity":"1","unitPrice":"1000.00","taxRate":"0.15"}]}`

func (f *apiFixture) createInvoice(t *testing.T) entity.Invoice {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/invoices", entity.RoleFacturador, json.RawMessage(invoiceBody))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[entity.Invoice](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Facturas
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoices_CrearYConsultar(t *testing.T) {
	api := newAPI(t)
	inv := api.createInvoice(t)

	assert.Equal(t, "INV-000001", inv.ID)
	assert.Equal(t, entity.InvoiceStatusSigned, inv.Status)
	assert.Equal(t, "1150.00", inv.LegalMonetaryTotal.PayableAmount.StringFixed(2))
	assert.NotEmpty(t, inv.QRCode)

	resp := api.do(t, http.MethodGet, "/api/invoices/"+inv.ID, entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[entity.Invoice](t, resp)
	assert.Equal(t, inv.UUID, got.UUID)
}

func TestInvoices_SinLineas_Retorna400(t *testing.T) {
	api := newAPI(t)
	resp := api.do(t, http.MethodPost, "/api/invoices", entity.RoleFacturador, json.RawMessage(`{"items":[]}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInvoices_PrecioNegativo_Retorna400(t *testing.T) {
	api := newAPI(t)
	body := `{"items":[{"description":"x","quantity":"1","unitPrice":"-5","taxRate":"0.15"}]}`
	resp := api.do(t, http.MethodPost, "/api/invoices", entity.RoleFacturador, json.RawMessage(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvoices_AuditorNoPuedeEmitir(t *testing.T) {
	api := newAPI(t)
	resp := api.do(t, http.MethodPost, "/api/invoices", entity.RoleAuditor, json.RawMessage(invoiceBody))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInvoices_Inexistente_Retorna404(t *testing.T) {
	api := newAPI(t)
	resp := api.do(t, http.MethodGet, "/api/invoices/INV-999999", entity.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInvoices_ValidacionYPDF(t *testing.T) {
	api := newAPI(t)
	inv := api.createInvoice(t)

	resp := api.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/validation", entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[entity.ValidationResult](t, resp)
	assert.True(t, res.IsValid, "errores: %v", res.Errors)

	resp = api.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", entity.RoleAuditor, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), inv.ID+".pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestInvoices_ReportarDosVeces_Retorna409(t *testing.T) {
	api := newAPI(t)
	inv := api.createInvoice(t)

	resp := api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/report", entity.RoleFacturador, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	queued := decode[dto.QueuedInvoiceResponse](t, resp)
	assert.Equal(t, entity.InvoiceStatusReported, queued.Invoice.Status)
	assert.True(t, strings.HasPrefix(queued.QueueItemID, inv.UUID+"_report_"))

	resp = api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/report", entity.RoleFacturador, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cola y sincronización
// ──────────────────────────────────────────────────────────────────────────────

func TestQueue_EstadisticasYPaginacion(t *testing.T) {
	api := newAPI(t)
	for i := 0; i < 3; i++ {
		inv := api.createInvoice(t)
		resp := api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/clear", entity.RoleFacturador, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		resp.Body.Close()
	}

	resp := api.do(t, http.MethodGet, "/api/queue/stats", entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[entity.QueueStats](t, resp)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 3, st.Pending)

	resp = api.do(t, http.MethodGet, "/api/queue?limit=2&offset=2", entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.QueueListResponse](t, resp)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Page.Total)

	resp = api.do(t, http.MethodGet, "/api/queue/overdue", entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]entity.QueueItem](t, resp), "recién encolados no están atrasados")
}

func TestQueue_RetrySoloAdmin(t *testing.T) {
	api := newAPI(t)
	inv := api.createInvoice(t)
	resp := api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/report", entity.RoleFacturador, nil)
	queued := decode[dto.QueuedInvoiceResponse](t, resp)

	resp = api.do(t, http.MethodPost, "/api/queue/"+queued.QueueItemID+"/retry", entity.RoleFacturador, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/queue/"+queued.QueueItemID+"/retry", entity.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "un ítem pending no se reintenta")
	resp.Body.Close()
}

func TestSync_EntregaLaColaYActualizaEstado(t *testing.T) {
	api := newAPI(t)
	inv := api.createInvoice(t)
	resp := api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/report", entity.RoleFacturador, nil)
	resp.Body.Close()

	resp = api.do(t, http.MethodPost, "/api/sync", entity.RoleFacturador, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin dispara sincronizaciones")

	resp = api.do(t, http.MethodPost, "/api/sync", entity.RoleAdmin, dto.SyncRequest{BatchSize: 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[entity.SyncResult](t, resp)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SyncedCount)

	rec, err := api.remote.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entity.InvoiceStatusReported, rec.Invoice.Status)

	resp = api.do(t, http.MethodGet, "/api/sync/status", entity.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[entity.SyncStatus](t, resp)
	assert.False(t, st.Running)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 1, st.LastResult.SyncedCount)
}

func TestSync_Offline_Retorna503(t *testing.T) {
	api := newAPI(t)
	api.remote.offline = true

	resp := api.do(t, http.MethodPost, "/api/sync", entity.RoleAdmin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "OFFLINE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestSync_StreamEmiteProgresoYResultado(t *testing.T) {
	api := newAPI(t)
	for i := 0; i < 2; i++ {
		inv := api.createInvoice(t)
		resp := api.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/report", entity.RoleFacturador, nil)
		resp.Body.Close()
	}

	resp := api.do(t, http.MethodGet, "/api/sync/stream", entity.RoleAdmin, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	s := string(body)
	assert.Contains(t, s, "event: progress")
	assert.Contains(t, s, `"processed":2`)
	assert.Contains(t, s, "event: result")
	assert.Contains(t, s, `"syncedCount":2`)
}
