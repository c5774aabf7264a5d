package zatca_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_ReportingAceptado(t *testing.T) {
	signed := []byte("<Invoice/>")
	srv := newTestServer(t, http.StatusOK, `{"reportingStatus":"REPORTED","validationResults":{"status":"PASS"}}`, func(r *http.Request) {
		assert.Equal(t, "/invoices/reporting/single", r.URL.Path)
		assert.Equal(t, "V2", r.Header.Get("Accept-Version"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "token", user)
		assert.Equal(t, "secreto", pass)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hash-b64", req["invoiceHash"])
		assert.Equal(t, "uuid-1", req["uuid"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(signed), req["invoice"])
	})

	c := infrazatca.NewAPIClient(srv.URL, "token", "secreto")
	res, err := c.Submit(context.Background(), entity.QueueOperationReport, &entity.Invoice{UUID: "uuid-1"}, signed, "hash-b64")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "REPORTED", res.Status)
}

func TestSubmit_ClearanceConAdvertencias(t *testing.T) {
	srv := newTestServer(t, http.StatusAccepted,
		`{"clearanceStatus":"CLEARED","clearedInvoice":"PD94bWw=","validationResults":{"warningMessages":[{"code":"BR-KSA-98","message":"aviso"}]}}`,
		func(r *http.Request) {
			assert.Equal(t, "/invoices/clearance/single", r.URL.Path)
			assert.Equal(t, "1", r.Header.Get("Clearance-Status"))
		})

	res, err := infrazatca.NewAPIClient(srv.URL, "u", "p").
		Submit(context.Background(), entity.QueueOperationClear, &entity.Invoice{UUID: "x"}, []byte("<Invoice/>"), "h")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "CLEARED", res.Status)
	assert.Equal(t, "PD94bWw=", res.ClearedInvoice)
	assert.Equal(t, []string{"BR-KSA-98: aviso"}, res.Warnings)
}

func TestSubmit_RechazoNoEsError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest,
		`{"reportingStatus":"NOT_REPORTED","validationResults":{"errorMessages":[{"code":"BR-KSA-37","message":"PIH inválido"}]}}`, nil)

	res, err := infrazatca.NewAPIClient(srv.URL, "u", "p").
		Submit(context.Background(), entity.QueueOperationReport, &entity.Invoice{UUID: "x"}, []byte("<Invoice/>"), "h")
	require.NoError(t, err, "un rechazo de validación no es un error de transporte")
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"BR-KSA-37: PIH inválido"}, res.Errors)
}

func TestSubmit_ErrorDeServidorEsError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv := newTestServer(t, status, `{}`, nil)
		_, err := infrazatca.NewAPIClient(srv.URL, "u", "p").
			Submit(context.Background(), entity.QueueOperationReport, &entity.Invoice{UUID: "x"}, []byte("<Invoice/>"), "h")
		assert.Error(t, err, "HTTP %d debe reintentarse", status)
	}
}

func TestSubmit_OperacionDesconocida(t *testing.T) {
	_, err := infrazatca.NewAPIClient("http://localhost", "u", "p").
		Submit(context.Background(), "anular", &entity.Invoice{}, nil, "")
	assert.Error(t, err)
}
