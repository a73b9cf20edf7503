package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nholding/esgroll/internal/esg/domain"
)

// Postgres is the RDS-backed Store implementation. Each logical
// collection is a JSONB-document table keyed by its identity tuple,
// grounded on the teacher's RdsPeriodRepository transactional
// prepared-statement batch pattern, generalized from one fixed "periods"
// table to one table per collection sharing the same filter columns.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

const observationsTable = "raw_observations"

func (p *Postgres) FindObservations(ctx context.Context, f RecordFilter) ([]domain.RawObservation, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE ($1 = '' OR company_id = $1)
		AND ($2 = '' OR site_id = $2) AND ($3 = '' OR metric_code = $3)`, observationsTable)

	rows, err := p.db.QueryContext(ctx, query, f.CompanyID, f.SiteID, f.MetricCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []domain.RawObservation
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}
		var o domain.RawObservation
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("failed to decode observation payload: %w", err)
		}
		if f.IsForecast == nil || o.IsForecast == *f.IsForecast {
			out = append(out, o)
		}
	}
	return out, rows.Err()
}

func (p *Postgres) InsertObservations(ctx context.Context, obs []domain.RawObservation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, company_id, site_id, metric_code, is_forecast, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, observationsTable))
	if err != nil {
		return fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if err := domain.ValidateObservation(o); err != nil {
			return fmt.Errorf("observation validation failed: %w", err)
		}
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to encode observation %s: %w", o.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, o.ID, o.CompanyID, o.SiteID, o.MetricCode, o.IsForecast, payload); err != nil {
			return fmt.Errorf("failed to insert observation %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func tableFor(col Collection) string {
	return "records_" + string(col)
}

func filterClause() string {
	return `($1 = '' OR company_id = $1) AND ($2 = '' OR site_id = $2)
		AND ($3 = '' OR metric_code = $3) AND ($4 = '' OR granularity = $4)
		AND ($5 = '' OR period_label = $5) AND ($6 = -1 OR is_forecast = ($6 = 1))`
}

func forecastArg(f RecordFilter) int {
	if f.IsForecast == nil {
		return -1
	}
	if *f.IsForecast {
		return 1
	}
	return 0
}

func (p *Postgres) FindRecords(ctx context.Context, col Collection, f RecordFilter) ([]domain.AggregatedRecord, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE %s`, tableFor(col), filterClause())
	rows, err := p.db.QueryContext(ctx, query, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", col, err)
	}
	defer rows.Close()

	var out []domain.AggregatedRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", col, err)
		}
		var r domain.AggregatedRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", col, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteRecords(ctx context.Context, col Collection, f RecordFilter) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, tableFor(col), filterClause())
	_, err := p.db.ExecContext(ctx, query, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", col, err)
	}
	return nil
}

func (p *Postgres) InsertRecords(ctx context.Context, col Collection, records []domain.AggregatedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, business_key, company_id, site_id, metric_code, granularity, period_label, is_forecast, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tableFor(col)))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", col, err)
	}
	defer stmt.Close()

	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
		}
		_, err = stmt.ExecContext(ctx, r.ID, r.BusinessKey, r.CompanyID, r.SiteID, r.MetricCode,
			string(r.Granularity), r.PeriodLabel, r.IsForecast, payload)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) ReplaceRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.AggregatedRecord) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s`, tableFor(col), filterClause())
	if _, err := tx.ExecContext(ctx, deleteQuery, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f)); err != nil {
		return fmt.Errorf("failed to delete existing %s rows: %w", col, err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, business_key, company_id, site_id, metric_code, granularity, period_label, is_forecast, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tableFor(col))
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, insertQuery, r.ID, r.BusinessKey, r.CompanyID, r.SiteID, r.MetricCode,
			string(r.Granularity), r.PeriodLabel, r.IsForecast, payload)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace transaction: %w", err)
	}
	return nil
}

func (p *Postgres) FindRollupRecords(ctx context.Context, col Collection, f RecordFilter) ([]domain.RollupRecord, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE %s`, tableFor(col), filterClause())
	rows, err := p.db.QueryContext(ctx, query, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", col, err)
	}
	defer rows.Close()

	var out []domain.RollupRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", col, err)
		}
		var r domain.RollupRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", col, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteRollupRecords(ctx context.Context, col Collection, f RecordFilter) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, tableFor(col), filterClause())
	_, err := p.db.ExecContext(ctx, query, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", col, err)
	}
	return nil
}

func (p *Postgres) InsertRollupRecords(ctx context.Context, col Collection, records []domain.RollupRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, business_key, company_id, site_id, metric_code, granularity, period_label, is_forecast, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tableFor(col)))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", col, err)
	}
	defer stmt.Close()

	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode rollup record %s: %w", r.ID, err)
		}
		_, err = stmt.ExecContext(ctx, r.ID, r.BusinessKey, r.CompanyID, r.SiteID, r.MetricCode,
			string(r.Granularity), r.PeriodLabel, r.IsForecast, payload)
		if err != nil {
			return fmt.Errorf("failed to insert rollup record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) ReplaceRollupRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.RollupRecord) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s`, tableFor(col), filterClause())
	if _, err := tx.ExecContext(ctx, deleteQuery, f.CompanyID, f.SiteID, f.MetricCode, string(f.Granularity), f.PeriodLabel, forecastArg(f)); err != nil {
		return fmt.Errorf("failed to delete existing %s rows: %w", col, err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, business_key, company_id, site_id, metric_code, granularity, period_label, is_forecast, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tableFor(col))
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode rollup record %s: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, insertQuery, r.ID, r.BusinessKey, r.CompanyID, r.SiteID, r.MetricCode,
			string(r.Granularity), r.PeriodLabel, r.IsForecast, payload)
		if err != nil {
			return fmt.Errorf("failed to insert rollup record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace transaction: %w", err)
	}
	return nil
}
