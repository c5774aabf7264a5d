package zatca

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// Rutas de la API Fatoora (v2).
const (
	pathReporting = "/invoices/reporting/single"
	pathClearance = "/invoices/clearance/single"
	apiVersion    = "V2"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SubmitResult resultado de la entrega a ZATCA.
type SubmitResult struct {
	Accepted       bool     // true si ZATCA aceptó el documento (200/202)
	StatusCode     int      // código HTTP devuelto
	Status         string   // REPORTED, CLEARED, NOT_REPORTED, NOT_CLEARED
	ClearedInvoice string   // XML autorizado en Base64 (solo clearance)
	Warnings       []string // advertencias de validación
	Errors         []string // errores de validación (rechazo)
}

// AuthoritySubmitter define el puerto de salida para reportar o autorizar facturas en ZATCA.
// Un error devuelto es de transporte (se reintenta); un rechazo llega como Accepted=false.
type AuthoritySubmitter interface {
	Submit(ctx context.Context, operation string, inv *entity.Invoice, signedXML []byte, invoiceHash string) (*SubmitResult, error)
}

// ── Implementación HTTP ───────────────────────────────────────────────────────

var _ AuthoritySubmitter = (*APIClient)(nil)

// APIClient implementa AuthoritySubmitter contra el gateway Fatoora (JSON + basic auth).
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	username   string // binary security token del CSID
	secret     string
}

// NewAPIClient construye el cliente con un timeout de red generoso (60 s);
// el gateway puede tardar varios segundos en validar el documento.
func NewAPIClient(baseURL, username, secret string) *APIClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		secret:     secret,
	}
}

// WithHTTPClient reemplaza el cliente HTTP (tests, proxies).
func (c *APIClient) WithHTTPClient(h *http.Client) *APIClient {
	c.httpClient = h
	return c
}

type submitRequest struct {
	InvoiceHash string `json:"invoiceHash"`
	UUID        string `json:"uuid"`
	Invoice     string `json:"invoice"` // XML firmado en Base64
}

type validationMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type submitResponse struct {
	ValidationResults struct {
		InfoMessages    []validationMessage `json:"infoMessages"`
		WarningMessages []validationMessage `json:"warningMessages"`
		ErrorMessages   []validationMessage `json:"errorMessages"`
		Status          string              `json:"status"`
	} `json:"validationResults"`
	ReportingStatus string `json:"reportingStatus"`
	ClearanceStatus string `json:"clearanceStatus"`
	ClearedInvoice  string `json:"clearedInvoice"`
}

// Submit envía la factura firmada a reporting (report) o clearance (clear).
func (c *APIClient) Submit(ctx context.Context, operation string, inv *entity.Invoice, signedXML []byte, invoiceHash string) (*SubmitResult, error) {
	path, err := pathFor(operation)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(submitRequest{
		InvoiceHash: invoiceHash,
		UUID:        inv.UUID,
		Invoice:     base64.StdEncoding.EncodeToString(signedXML),
	})
	if err != nil {
		return nil, fmt.Errorf("zatca api: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("zatca api: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept-Version", apiVersion)
	if operation == entity.QueueOperationClear {
		req.Header.Set("Clearance-Status", "1")
	}
	req.SetBasicAuth(c.username, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("zatca api: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("zatca api: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("zatca api: leer respuesta: %w", err)
	}
	return parseSubmitResponse(resp.StatusCode, rawBody)
}

func pathFor(operation string) (string, error) {
	switch operation {
	case entity.QueueOperationReport:
		return pathReporting, nil
	case entity.QueueOperationClear:
		return pathClearance, nil
	}
	return "", fmt.Errorf("zatca api: operación desconocida %q (usar 'report' o 'clear')", operation)
}

// parseSubmitResponse: 200/202 aceptada, 400 rechazada con mensajes, el resto es error de transporte.
func parseSubmitResponse(status int, rawBody []byte) (*SubmitResult, error) {
	switch status {
	case http.StatusOK, http.StatusAccepted, http.StatusBadRequest:
	default:
		return nil, fmt.Errorf("zatca api: respuesta HTTP %d: %s", status, truncate(string(rawBody), 256))
	}

	var body submitResponse
	if err := json.Unmarshal(rawBody, &body); err != nil && status != http.StatusBadRequest {
		return nil, fmt.Errorf("zatca api: parsear respuesta: %w", err)
	}

	res := &SubmitResult{
		Accepted:       status != http.StatusBadRequest,
		StatusCode:     status,
		Status:         body.ReportingStatus,
		ClearedInvoice: body.ClearedInvoice,
	}
	if res.Status == "" {
		res.Status = body.ClearanceStatus
	}
	for _, m := range body.ValidationResults.WarningMessages {
		res.Warnings = append(res.Warnings, m.Code+": "+m.Message)
	}
	for _, m := range body.ValidationResults.ErrorMessages {
		res.Errors = append(res.Errors, m.Code+": "+m.Message)
	}
	if !res.Accepted && len(res.Errors) == 0 {
		res.Errors = []string{"rechazada sin detalle: " + truncate(string(rawBody), 256)}
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
