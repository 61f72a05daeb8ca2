package storage

import (
	"context"
	"database/sql" // Importar sql base
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"

	"github.com/gagliardetto/solana-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	// ErrNotFound indica que a entidade ainda não chegou ao espelho.
	ErrNotFound = errors.New("não encontrado no espelho")
	// ErrMirrorNotEmpty indica que o espelho guarda dados de um ledger anterior.
	ErrMirrorNotEmpty = errors.New("espelho contém dados de uma execução anterior")
)

// DB é o espelho relacional (PostgreSQL) das visões do núcleo contábil.
type DB struct {
	*sqlx.DB
}

// NewDB conecta-se ao PostgreSQL e executa as migrações de migrationsDir.
func NewDB(dataSourceName, migrationsDir string) (*DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}
	logging.Info("Conexão com PostgreSQL estabelecida com sucesso.")

	d := &DB{db}
	if _, err := d.Migrate(migrationsDir, migrate.Up); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Migrate aplica (ou desfaz) as migrações usando sql-migrate.
func (d *DB) Migrate(dir string, direction migrate.MigrationDirection) (int, error) {
	return runMigrations(d.DB.DB, dir, direction)
}

func runMigrations(db *sql.DB, dir string, direction migrate.MigrationDirection) (int, error) {
	migrations := &migrate.FileMigrationSource{Dir: dir}

	n, err := migrate.Exec(db, "postgres", migrations, direction)
	if err != nil {
		return 0, fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if n > 0 {
		logging.Info("Aplicadas %d migrações ao banco de dados.", n)
	} else {
		logging.Debug("Nenhuma migração nova para aplicar.")
	}
	return n, nil
}

type propertyRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Location        string    `db:"location"`
	PropertyType    string    `db:"property_type"`
	ImageURL        string    `db:"image_url"`
	RentalYield     string    `db:"rental_yield"`
	TotalValue      uint64    `db:"total_value"`
	TotalShares     uint64    `db:"total_shares"`
	AvailableShares uint64    `db:"available_shares"`
	PricePerShare   uint64    `db:"price_per_share"`
	IsActive        bool      `db:"is_active"`
	Owner           string    `db:"owner"`
	Treasury        uint64    `db:"treasury"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r propertyRow) model() (models.Property, error) {
	owner, err := solana.PublicKeyFromBase58(r.Owner)
	if err != nil {
		return models.Property{}, fmt.Errorf("owner inválido no imóvel %s: %w", r.ID, err)
	}
	return models.Property{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Location:        r.Location,
		PropertyType:    r.PropertyType,
		ImageURL:        r.ImageURL,
		RentalYield:     r.RentalYield,
		TotalValue:      r.TotalValue,
		TotalShares:     r.TotalShares,
		AvailableShares: r.AvailableShares,
		PricePerShare:   r.PricePerShare,
		IsActive:        r.IsActive,
		Owner:           owner,
		Treasury:        r.Treasury,
		CreatedAt:       r.CreatedAt,
	}, nil
}

type investmentRow struct {
	ID          string    `db:"id"`
	PropertyID  string    `db:"property_id"`
	Holder      string    `db:"holder"`
	SharesOwned uint64    `db:"shares_owned"`
	AmountPaid  uint64    `db:"amount_paid"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r investmentRow) model() (models.Investment, error) {
	holder, err := solana.PublicKeyFromBase58(r.Holder)
	if err != nil {
		return models.Investment{}, fmt.Errorf("holder inválido no investimento %s: %w", r.ID, err)
	}
	return models.Investment{
		ID:          r.ID,
		PropertyID:  r.PropertyID,
		Holder:      holder,
		SharesOwned: r.SharesOwned,
		AmountPaid:  r.AmountPaid,
		CreatedAt:   r.CreatedAt,
	}, nil
}

// SaveProperty grava a visão do imóvel (ON CONFLICT atualiza).
func (d *DB) SaveProperty(ctx context.Context, p models.Property) error {
	query := `INSERT INTO properties (id, name, description, location, property_type, image_url, rental_yield,
		total_value, total_shares, available_shares, price_per_share, is_active, owner, treasury, created_at, updated_at)
		VALUES (:id, :name, :description, :location, :property_type, :image_url, :rental_yield,
		:total_value, :total_shares, :available_shares, :price_per_share, :is_active, :owner, :treasury, :created_at, now())
		ON CONFLICT (id) DO UPDATE SET
			available_shares = EXCLUDED.available_shares,
			is_active = EXCLUDED.is_active,
			treasury = EXCLUDED.treasury,
			updated_at = now()`
	row := propertyRow{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Location:        p.Location,
		PropertyType:    p.PropertyType,
		ImageURL:        p.ImageURL,
		RentalYield:     p.RentalYield,
		TotalValue:      p.TotalValue,
		TotalShares:     p.TotalShares,
		AvailableShares: p.AvailableShares,
		PricePerShare:   p.PricePerShare,
		IsActive:        p.IsActive,
		Owner:           p.Owner.String(),
		Treasury:        p.Treasury,
		CreatedAt:       p.CreatedAt,
	}
	if _, err := d.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("falha ao salvar imóvel: %w", err)
	}
	return nil
}

// SaveInvestment grava a visão do investimento (ON CONFLICT atualiza o detentor).
func (d *DB) SaveInvestment(ctx context.Context, inv models.Investment) error {
	query := `INSERT INTO investments (id, property_id, holder, shares_owned, amount_paid, created_at, updated_at)
		VALUES (:id, :property_id, :holder, :shares_owned, :amount_paid, :created_at, now())
		ON CONFLICT (id) DO UPDATE SET holder = EXCLUDED.holder, updated_at = now()`
	row := investmentRow{
		ID:          inv.ID,
		PropertyID:  inv.PropertyID,
		Holder:      inv.Holder.String(),
		SharesOwned: inv.SharesOwned,
		AmountPaid:  inv.AmountPaid,
		CreatedAt:   inv.CreatedAt,
	}
	if _, err := d.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("falha ao salvar investimento: %w", err)
	}
	return nil
}

const propertyColumns = `id, name, description, location, property_type, image_url, rental_yield,
	total_value, total_shares, available_shares, price_per_share, is_active, owner, treasury, created_at`

func (d *DB) GetProperty(ctx context.Context, id string) (models.Property, error) {
	var row propertyRow
	err := d.GetContext(ctx, &row, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Property{}, fmt.Errorf("%w: imóvel %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Property{}, fmt.Errorf("falha ao buscar imóvel: %w", err)
	}
	return row.model()
}

// ListProperties lista os imóveis espelhados em ordem de criação.
func (d *DB) ListProperties(ctx context.Context, activeOnly bool) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ($1 = false OR is_active) ORDER BY created_at, id`
	var rows []propertyRow
	if err := d.SelectContext(ctx, &rows, query, activeOnly); err != nil {
		return nil, fmt.Errorf("falha ao listar imóveis: %w", err)
	}
	out := make([]models.Property, 0, len(rows))
	for _, r := range rows {
		p, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

const investmentColumns = `id, property_id, holder, shares_owned, amount_paid, created_at`

func (d *DB) GetInvestment(ctx context.Context, id string) (models.Investment, error) {
	var row investmentRow
	err := d.GetContext(ctx, &row, `SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Investment{}, fmt.Errorf("%w: investimento %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Investment{}, fmt.Errorf("falha ao buscar investimento: %w", err)
	}
	return row.model()
}

// InvestmentsByHolder lista os investimentos detidos por holder segundo o espelho.
func (d *DB) InvestmentsByHolder(ctx context.Context, holder models.Address) ([]models.Investment, error) {
	var rows []investmentRow
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE holder = $1 ORDER BY created_at, id`
	if err := d.SelectContext(ctx, &rows, query, holder.String()); err != nil {
		return nil, fmt.Errorf("falha ao listar investimentos de %s: %w", holder, err)
	}
	out := make([]models.Investment, 0, len(rows))
	for _, r := range rows {
		inv, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// SaveCursor grava a última notificação processada pelo listener name.
func (d *DB) SaveCursor(ctx context.Context, name string, seq uint64) error {
	query := `INSERT INTO listener_cursors (name, seq, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET seq = EXCLUDED.seq, updated_at = now()`
	if _, err := d.ExecContext(ctx, query, name, int64(seq)); err != nil {
		return fmt.Errorf("falha ao salvar cursor %s: %w", name, err)
	}
	return nil
}

// LoadCursor retorna o cursor do listener name, 0 se ainda não existe.
func (d *DB) LoadCursor(ctx context.Context, name string) (uint64, error) {
	var seq int64
	err := d.GetContext(ctx, &seq, `SELECT seq FROM listener_cursors WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("falha ao carregar cursor %s: %w", name, err)
	}
	return uint64(seq), nil
}

// IsEmpty indica se o espelho não tem imóveis, investimentos nem cursores.
func (d *DB) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM properties)
		OR EXISTS (SELECT 1 FROM investments)
		OR EXISTS (SELECT 1 FROM listener_cursors)`
	if err := d.GetContext(ctx, &exists, query); err != nil {
		return false, fmt.Errorf("falha ao inspecionar o espelho: %w", err)
	}
	return !exists, nil
}

// Reset apaga imóveis, investimentos e cursores numa única transação.
func (d *DB) Reset(ctx context.Context) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar limpeza do espelho: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `TRUNCATE investments, properties, listener_cursors`); err != nil {
		return fmt.Errorf("falha ao limpar o espelho: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar limpeza do espelho: %w", err)
	}
	return nil
}

// PrepareForLedger deixa o espelho pronto para um ledger que começa vazio.
// Um espelho com dados só é aceito com reset, e então é limpo por inteiro;
// caso contrário retorna ErrMirrorNotEmpty sem alterar nada.
func (d *DB) PrepareForLedger(ctx context.Context, reset bool) error {
	empty, err := d.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	if !reset {
		return ErrMirrorNotEmpty
	}
	logging.Warn("espelho com dados de uma execução anterior; limpando")
	return d.Reset(ctx)
}
