// Package bootstrap arma el grafo de dependencias a partir de la configuración; lo comparten el
// servidor HTTP y la CLI.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"

	"github.com/jhoicas/zatca-einvoice/internal/application/invoicing"
	"github.com/jhoicas/zatca-einvoice/internal/application/offline"
	appsync "github.com/jhoicas/zatca-einvoice/internal/application/sync"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	domainzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/localstore"
	infrapdf "github.com/jhoicas/zatca-einvoice/internal/infrastructure/pdf"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/postgres"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/storage"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// Llaves del modo hash. Solo sirven para desarrollo: HashSigner no verifica firmas reales.
const (
	devPrivateKey = "zatca-dev-private-key"
	devPublicKey  = "zatca-dev-public-key"
)

// App agrupa los servicios construidos. Engine y Scheduler son nil si no hay almacén remoto.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Invoicing *invoicing.Service
	Queue     *offline.Queue
	Engine    *appsync.Engine
	Scheduler *appsync.Scheduler

	pool *pgxpool.Pool
}

// New construye la aplicación. fs es la raíz de los almacenes locales (afero.NewOsFs en producción).
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, fs afero.Fs) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		a.pool = pool
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("esquema PostgreSQL: %w", err)
		}
	}

	chain, queueRepo, invoices, err := a.stores(fs)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Queue = offline.NewQueue(queueRepo, log.WithComponent("queue"),
		offline.WithMaxAttempts(cfg.Sync.MaxAttempts), offline.WithStaleAfter(cfg.Sync.StaleAfter))
	// Ítems que una caída dejó en processing vuelven a failed para que la sincronización los retome.
	if _, err := a.Queue.RecoverStale(ctx, 0); err != nil {
		a.Close()
		return nil, fmt.Errorf("recuperar cola: %w", err)
	}

	sv, priv, pub, err := loadSigner(cfg.ZATCA, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	hasher := domainzatca.NewHasherService()
	ubl := infrazatca.NewUBLBuilderService()

	a.Invoicing, err = invoicing.NewService(ctx, invoicing.Deps{
		ChainState: chain,
		Invoices:   invoices,
		Queue:      a.Queue,
		UBL:        ubl,
		PDF:        infrapdf.NewMarotoPDFGenerator(),
		Hasher:     hasher,
		Stamper:    domainzatca.NewStamperService(sv, hasher),
	}, invoicing.Config{
		PrivateKey:         priv,
		PublicKey:          pub,
		DefaultSupplier:    sellerFromConfig(cfg.ZATCA.Seller),
		HighValueThreshold: cfg.ZATCA.HighValueThreshold,
		OverdueAfter:       cfg.Sync.OverdueAfter,
	}, log.WithComponent("invoicing"))
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.pool == nil {
		log.Warn().Msg("sin almacén remoto configurado: la sincronización queda deshabilitada")
		return a, nil
	}

	var engineOpts []appsync.EngineOption
	if cfg.ZATCA.SubmitEnabled() {
		engineOpts = append(engineOpts, appsync.WithSubmitter(
			infrazatca.NewAPIClient(cfg.ZATCA.APIBaseURL, cfg.ZATCA.Username, cfg.ZATCA.Secret)))
	}
	if cfg.Archive.Enabled {
		archiver, err := storage.NewS3Archiver(cfg.Archive)
		if err != nil {
			a.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, appsync.WithArchiver(archiver))
	}
	a.Engine = appsync.NewEngine(a.Queue, postgres.NewRemoteInvoiceRepository(a.pool), ubl,
		log.WithComponent("sync"), engineOpts...)
	a.Scheduler = appsync.NewScheduler(a.Engine, cfg.Sync.Interval, a.SyncOptions(), log.WithComponent("sync"))
	return a, nil
}

// SyncOptions traduce la configuración a opciones del motor.
func (a *App) SyncOptions() appsync.Options {
	s := a.Config.Sync
	return appsync.Options{
		BatchSize:   s.BatchSize,
		BatchDelay:  s.BatchDelay,
		CallTimeout: s.CallTimeout,
		MaxRetries:  s.MaxRetries,
		RetryDelay:  s.RetryDelay,
		StaleAfter:  s.StaleAfter,
	}
}

// Close libera el pool de PostgreSQL si existe.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func (a *App) stores(fs afero.Fs) (repository.ChainStateRepository, repository.QueueRepository, repository.InvoiceRepository, error) {
	st := a.Config.Storage
	invoices, err := localstore.NewInvoiceStore(fs, filepath.Join(st.DataDir, "invoices"))
	if err != nil {
		return nil, nil, nil, err
	}

	var chain repository.ChainStateRepository
	if st.StateBackend == config.BackendPostgres {
		chain = postgres.NewChainStateRepository(a.pool)
	} else if chain, err = localstore.NewChainStateStore(fs, filepath.Join(st.DataDir, "state")); err != nil {
		return nil, nil, nil, err
	}

	var queue repository.QueueRepository
	if st.QueueBackend == config.BackendPostgres {
		queue = postgres.NewQueueRepository(a.pool)
	} else if queue, err = localstore.NewQueueStore(fs, filepath.Join(st.DataDir, "queue")); err != nil {
		return nil, nil, nil, err
	}
	return chain, queue, invoices, nil
}

func loadSigner(cfg config.ZATCAConfig, log *logger.Logger) (zatca.SignerVerifier, string, string, error) {
	if cfg.SignerMode == config.SignerModeHash {
		log.Warn().Msg("firmando en modo hash: solo para desarrollo")
		return signer.NewHashSigner(), devPrivateKey, devPublicKey, nil
	}
	var (
		priv, pub string
		err       error
	)
	switch {
	case cfg.P12Path != "":
		priv, pub, err = signer.LoadFromP12(cfg.P12Path, cfg.P12Password)
	case cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "":
		priv, pub, err = signer.LoadFromPEM(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	default:
		return nil, "", "", fmt.Errorf("ZATCA_SIGNER=ecdsa requiere ZATCA_P12_PATH o ZATCA_PRIVATE_KEY_PATH y ZATCA_PUBLIC_KEY_PATH")
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("cargar llaves de firma: %w", err)
	}
	return signer.NewECDSASigner(), priv, pub, nil
}

func sellerFromConfig(s config.SellerConfig) entity.Supplier {
	return entity.Supplier{
		Name:      s.Name,
		NameAr:    s.NameAr,
		VATNumber: s.VATNumber,
		CRNumber:  s.CRNumber,
		Address: entity.Address{
			Street:           s.Street,
			BuildingNumber:   s.BuildingNumber,
			CitySubdivision:  s.CitySubdivision,
			CityName:         s.CityName,
			PostalZone:       s.PostalZone,
			CountrySubentity: s.CountrySubentity,
		},
	}
}
