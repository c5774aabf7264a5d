// Package invoicing ensambla la factura simplificada ZATCA: totales, sello, QR y encadenamiento
// de hashes, y la entrega a la cola offline para report / clear.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// DefaultHighValueThreshold total con IVA a partir del cual Validate agrega una advertencia.
var DefaultHighValueThreshold = decimal.RequireFromString("1000.00")

// DefaultOverdueAfter antigüedad a partir de la cual un ítem de la cola se considera atrasado.
const DefaultOverdueAfter = 24 * time.Hour

// Config datos de firma y valores por defecto del servicio.
type Config struct {
	PrivateKey         string
	PublicKey          string
	DefaultSupplier    entity.Supplier // se usa cuando la solicitud no trae vendedor
	HighValueThreshold decimal.Decimal
	OverdueAfter       time.Duration
}

// Deps dependencias del servicio. Invoices y PDF son opcionales.
type Deps struct {
	ChainState repository.ChainStateRepository
	Invoices   repository.InvoiceRepository
	Queue      DeliveryQueue
	UBL        UBLGenerator
	PDF        InvoicePDFGenerator
	Hasher     *domainzatca.HasherService
	Stamper    *domainzatca.StamperService
}

// Option configura el servicio.
type Option func(*Service)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithUUIDGenerator inyecta el generador de UUID (tests).
func WithUUIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newUUID = gen }
}

// Service es el servicio de ensamblado de facturas.
// El contador y el hash previo viven en state y solo se modifican bajo mu.
type Service struct {
	deps Deps
	cfg  Config
	log  zerolog.Logger

	mu    sync.Mutex
	state entity.ChainState

	now     func() time.Time
	newUUID func() string
}

// NewService carga el estado de la cadena desde deps.ChainState. Si no hay estado, arranca en
// contador 0 con el hash génesis.
func NewService(ctx context.Context, deps Deps, cfg Config, log zerolog.Logger, opts ...Option) (*Service, error) {
	if deps.ChainState == nil || deps.Queue == nil || deps.UBL == nil || deps.Hasher == nil || deps.Stamper == nil {
		return nil, errors.New("invoicing: faltan dependencias obligatorias")
	}
	if cfg.HighValueThreshold.IsZero() {
		cfg.HighValueThreshold = DefaultHighValueThreshold
	}
	if cfg.OverdueAfter <= 0 {
		cfg.OverdueAfter = DefaultOverdueAfter
	}
	s := &Service{
		deps:    deps,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		newUUID: uuid.NewString,
		state:   entity.ChainState{InvoiceCounter: 0, PreviousHash: zatca.GenesisPreviousHash},
	}
	for _, o := range opts {
		o(s)
	}

	st, err := deps.ChainState.Load(ctx)
	if err != nil {
		return nil, domain.NewChainStateError("load", err)
	}
	if st != nil {
		s.state = *st
	}
	s.log.Info().Int64("counter", s.state.InvoiceCounter).Msg("estado de la cadena cargado")
	return s, nil
}

// ChainState devuelve una copia del estado actual.
func (s *Service) ChainState() entity.ChainState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate crea, sella y encadena una factura simplificada. Devuelve la factura en estado signed.
// Si el sello o el QR fallan, el estado no cambia. Si el estado no puede persistirse devuelve
// *domain.ChainStateError y el contador no avanza.
func (s *Service) Generate(ctx context.Context, in dto.GenerateInvoiceRequest) (*entity.Invoice, error) {
	supplier, err := s.buildSupplier(in.Supplier)
	if err != nil {
		return nil, err
	}
	items := lineInputs(in.Items)
	if err := domainzatca.ValidateLineInputs(items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.Customer != nil && in.Customer.VATNumber != "" {
		if err := zatca.ValidateVATNumber(in.Customer.VATNumber); err != nil {
			return nil, fmt.Errorf("%w: IVA del cliente: %v", domain.ErrInvalidInput, err)
		}
	}

	lines := domainzatca.BuildLines(items)
	taxTotal := domainzatca.BuildTaxTotal(lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counter := s.state.InvoiceCounter + 1
	now := s.now().UTC()
	inv := &entity.Invoice{
		ID:                   fmt.Sprintf("INV-%06d", counter),
		UUID:                 s.newUUID(),
		CounterValue:         counter,
		PreviousInvoiceHash:  s.state.PreviousHash,
		IssueDate:            now.Format("2006-01-02"),
		IssueTime:            now.Format("15:04:05"),
		InvoiceTypeCode:      zatca.InvoiceTypeTaxInvoice,
		InvoiceTypeName:      zatca.InvoiceSubtypeSimplified,
		DocumentCurrencyCode: zatca.CurrencySAR,
		TaxCurrencyCode:      zatca.CurrencySAR,
		Supplier:             supplier,
		Customer:             buildCustomer(in.Customer),
		Lines:                lines,
		TaxTotal:             taxTotal,
		LegalMonetaryTotal:   domainzatca.BuildLegalMonetaryTotal(lines, taxTotal),
		Status:               entity.InvoiceStatusDraft,
	}

	stamp, err := s.deps.Stamper.Stamp(inv, s.cfg.PrivateKey, s.cfg.PublicKey)
	if err != nil {
		return nil, err
	}
	qr, err := domainzatca.BuildQR(inv)
	if err != nil {
		return nil, fmt.Errorf("generar QR de %s: %w", inv.ID, err)
	}
	hash, err := s.deps.Hasher.Hash(inv)
	if err != nil {
		return nil, domain.NewCryptoError("hash", err)
	}
	inv.Stamp = stamp
	inv.QRCode = qr
	inv.Status = entity.InvoiceStatusSigned

	// La factura se guarda antes del estado: si el estado falla, el siguiente intento
	// reutiliza el mismo ID y la reemplaza.
	if s.deps.Invoices != nil {
		if err := s.deps.Invoices.Save(ctx, inv); err != nil {
			return nil, fmt.Errorf("guardar factura %s: %w", inv.ID, err)
		}
	}
	next := entity.ChainState{InvoiceCounter: counter, PreviousHash: hash}
	if err := s.deps.ChainState.Save(ctx, next); err != nil {
		if s.deps.Invoices != nil {
			if derr := s.deps.Invoices.Delete(ctx, inv.ID); derr != nil {
				s.log.Warn().Err(derr).Str("invoice_id", inv.ID).Msg("no se pudo descartar la factura huérfana")
			}
		}
		return nil, domain.NewChainStateError("save", err)
	}
	s.state = next

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("uuid", inv.UUID).
		Int64("counter", counter).
		Str("total", domainzatca.FormatAmount(inv.LegalMonetaryTotal.TaxInclusiveAmount)).
		Msg("factura simplificada generada")
	return inv, nil
}

// Report encola la factura para reporte (B2C) y la marca reported. No hace I/O de red.
func (s *Service) Report(ctx context.Context, inv *entity.Invoice) (*entity.QueueItem, error) {
	return s.enqueue(ctx, inv, entity.QueueOperationReport)
}

// Clear encola la factura para autorización (B2B) y la marca cleared. No hace I/O de red.
func (s *Service) Clear(ctx context.Context, inv *entity.Invoice) (*entity.QueueItem, error) {
	return s.enqueue(ctx, inv, entity.QueueOperationClear)
}

func (s *Service) enqueue(ctx context.Context, inv *entity.Invoice, operation string) (*entity.QueueItem, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	if inv.Status != entity.InvoiceStatusSigned {
		return nil, fmt.Errorf("%w: la factura %s está en %s y debe estar firmada",
			domain.ErrInvalidTransition, inv.ID, inv.Status)
	}

	// La instantánea encolada ya lleva el nuevo estado.
	updated := inv.Clone()
	now := s.now().UTC()
	switch operation {
	case entity.QueueOperationReport:
		updated.Status = entity.InvoiceStatusReported
		updated.ReportedAt = &now
	case entity.QueueOperationClear:
		updated.Status = entity.InvoiceStatusCleared
		updated.ClearedAt = &now
	}

	item, err := s.deps.Queue.Enqueue(ctx, updated, operation)
	if err != nil {
		return nil, err
	}
	*inv = *updated
	if s.deps.Invoices != nil {
		if err := s.deps.Invoices.Save(ctx, inv); err != nil {
			s.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo actualizar la factura local")
		}
	}
	s.log.Info().Str("invoice_id", inv.ID).Str("operation", operation).Str("item_id", item.ID).
		Msg("factura encolada para ZATCA")
	return item, nil
}

// Validate devuelve el resultado estructurado de cumplimiento. Nunca devuelve error y no modifica la factura.
func (s *Service) Validate(_ context.Context, inv *entity.Invoice) entity.ValidationResult {
	res := entity.ValidationResult{Errors: []string{}, Warnings: []string{}}
	if inv == nil {
		res.Errors = append(res.Errors, "la factura es obligatoria")
		return res
	}

	res.Errors = append(res.Errors, domainzatca.CheckStructure(inv)...)
	if !s.deps.Stamper.VerifyStamp(inv) {
		res.Errors = append(res.Errors, "sello criptográfico inválido")
	}
	xmlDoc, err := s.deps.UBL.Generate(inv)
	if err != nil || !s.deps.UBL.Validate(xmlDoc) {
		res.Errors = append(res.Errors, "estructura UBL XML inválida")
	}
	res.Errors = append(res.Errors, domainzatca.CheckMonetaryInvariants(inv)...)

	if inv.LegalMonetaryTotal.TaxInclusiveAmount.GreaterThan(s.cfg.HighValueThreshold) {
		res.Warnings = append(res.Warnings, "factura de alto valor: considere una verificación adicional")
	}
	if zatca.ValidateVATNumber(inv.Supplier.VATNumber) == nil && !zatca.IsConventionalVATNumber(inv.Supplier.VATNumber) {
		res.Warnings = append(res.Warnings, "el número de IVA no empieza y termina en 3")
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// GeneratePDF devuelve el PDF de la factura con el UBL firmado embebido.
func (s *Service) GeneratePDF(ctx context.Context, inv *entity.Invoice) ([]byte, error) {
	if s.deps.PDF == nil {
		return nil, errors.New("invoicing: generador de PDF no configurado")
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	xmlDoc, err := s.deps.UBL.Generate(inv)
	if err != nil {
		return nil, fmt.Errorf("generar UBL de %s: %w", inv.ID, err)
	}
	return s.deps.PDF.GenerateInvoicePDF(ctx, inv, xmlDoc)
}

// SignedXML devuelve el UBL firmado de la factura.
func (s *Service) SignedXML(inv *entity.Invoice) ([]byte, error) {
	return s.deps.UBL.Generate(inv)
}

// QueueStats conteos por estado de la cola offline.
func (s *Service) QueueStats(ctx context.Context) (entity.QueueStats, error) {
	return s.deps.Queue.Stats(ctx)
}

// OverdueInvoices ítems no completados con más antigüedad que la configurada (24 h por defecto).
func (s *Service) OverdueInvoices(ctx context.Context) ([]*entity.QueueItem, error) {
	return s.deps.Queue.Overdue(ctx, s.cfg.OverdueAfter)
}

// GetInvoice busca una factura firmada en el almacén local.
func (s *Service) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	if s.deps.Invoices == nil {
		return nil, domain.ErrNotFound
	}
	inv, err := s.deps.Invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// ReportByID igual que Report, buscando la factura por ID.
func (s *Service) ReportByID(ctx context.Context, id string) (*entity.Invoice, *entity.QueueItem, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.Report(ctx, inv)
	return inv, item, err
}

// ClearByID igual que Clear, buscando la factura por ID.
func (s *Service) ClearByID(ctx context.Context, id string) (*entity.Invoice, *entity.QueueItem, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.Clear(ctx, inv)
	return inv, item, err
}

// VerifyChain recorre las facturas guardadas y comprueba el encadenamiento de hashes.
// Devuelve la cantidad de facturas verificadas.
func (s *Service) VerifyChain(ctx context.Context) (int, error) {
	if s.deps.Invoices == nil {
		return 0, errors.New("invoicing: almacén de facturas no configurado")
	}
	all, err := s.deps.Invoices.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.deps.Hasher.VerifyChain(all, zatca.GenesisPreviousHash); err != nil {
		return 0, err
	}
	return len(all), nil
}

// ── Mapeo de la solicitud ─────────────────────────────────────────────────────

func (s *Service) buildSupplier(in *dto.SupplierInput) (entity.Supplier, error) {
	var sup entity.Supplier
	if in == nil {
		sup = s.cfg.DefaultSupplier
	} else {
		sup = entity.Supplier{
			ID:        in.ID,
			Name:      in.Name,
			NameAr:    in.NameAr,
			VATNumber: in.VATNumber,
			CRNumber:  in.CRNumber,
			Address:   buildAddress(in.Address),
		}
	}
	if sup.ID == "" {
		sup.ID = "1"
	}
	if sup.Scheme == "" {
		sup.Scheme = zatca.SchemeCRN
	}
	if sup.NameAr == "" {
		sup.NameAr = sup.Name
	}
	if sup.Address.CountryCode == "" {
		sup.Address.CountryCode = zatca.DefaultCountryCode
	}
	if sup.Name == "" {
		return sup, fmt.Errorf("%w: el nombre del vendedor es obligatorio", domain.ErrInvalidInput)
	}
	if err := zatca.ValidateVATNumber(sup.VATNumber); err != nil {
		return sup, fmt.Errorf("%w: IVA del vendedor: %v", domain.ErrInvalidInput, err)
	}
	return sup, nil
}

func buildAddress(a dto.AddressInput) entity.Address {
	cc := a.CountryCode
	if cc == "" {
		cc = zatca.DefaultCountryCode
	}
	return entity.Address{
		Street:             a.Street,
		AdditionalStreet:   a.AdditionalStreet,
		BuildingNumber:     a.BuildingNumber,
		PlotIdentification: a.PlotIdentification,
		CitySubdivision:    a.CitySubdivision,
		CityName:           a.CityName,
		PostalZone:         a.PostalZone,
		CountrySubentity:   a.CountrySubentity,
		CountryCode:        cc,
	}
}

func buildCustomer(in *dto.CustomerInput) *entity.Customer {
	if in == nil {
		return nil
	}
	c := &entity.Customer{Name: in.Name, VATNumber: in.VATNumber}
	if in.Address != nil {
		a := buildAddress(*in.Address)
		c.Address = &a
	}
	return c
}

func lineInputs(items []dto.InvoiceItemInput) []domainzatca.LineInput {
	out := make([]domainzatca.LineInput, 0, len(items))
	for _, it := range items {
		out = append(out, domainzatca.LineInput{
			Description:   it.Description,
			DescriptionAr: it.DescriptionAr,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TaxRate:       it.TaxRate,
		})
	}
	return out
}
