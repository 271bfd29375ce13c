package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crm_search_backend/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const recordColumns = `
	id, first_name, last_name, full_name, email,
	phone_number, secondary_phone_number, alternate_phone_number,
	account_id, avatar_url, language, country_code, country, city,
	status, source, desk, agent, score, has_deposit, documents,
	last_login_at, created_at`

// Repository reads the lead/client pool from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Name implements entities.Loader.
func (r *Repository) Name() string {
	return "postgres"
}

// Load implements entities.Loader. The three tables are read concurrently.
func (r *Repository) Load(ctx context.Context) (entities.Data, error) {
	var data entities.Data
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		leads, err := r.listRecords(gctx, "crm_leads")
		data.Leads = leads
		return err
	})
	g.Go(func() error {
		clients, err := r.listRecords(gctx, "crm_clients")
		data.Clients = clients
		return err
	})
	g.Go(func() error {
		docs, err := r.ListGlobalCustomDocuments(gctx)
		data.CustomDocuments = docs
		return err
	})

	if err := g.Wait(); err != nil {
		return entities.Data{}, err
	}
	return data, nil
}

// ListGlobalCustomDocuments returns the definitions searchable on every record.
func (r *Repository) ListGlobalCustomDocuments(ctx context.Context) ([]entities.CustomDocumentDefinition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM crm_custom_documents
		WHERE is_global = true
		ORDER BY display_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list custom documents: %w", err)
	}
	defer rows.Close()

	items := make([]entities.CustomDocumentDefinition, 0)
	for rows.Next() {
		var item entities.CustomDocumentDefinition
		if err := rows.Scan(&item.ID, &item.Name, &item.Description); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// table is one of the two fixed record tables, never user input.
func (r *Repository) listRecords(ctx context.Context, table string) ([]entities.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id ASC
	`, recordColumns, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	records := make([]entities.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, record)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return records, nil
}

func scanRecord(row pgx.Row) (entities.Record, error) {
	var (
		rec                                   entities.Record
		firstName, lastName, fullName, email  *string
		phone, secondaryPhone, alternatePhone *string
		accountID, avatarURL, language        *string
		countryCode, country, city            *string
		status, source, desk, agent           *string
		documents                             []byte
		lastLoginAt                           *time.Time
	)

	if err := row.Scan(
		&rec.ID, &firstName, &lastName, &fullName, &email,
		&phone, &secondaryPhone, &alternatePhone,
		&accountID, &avatarURL, &language, &countryCode, &country, &city,
		&status, &source, &desk, &agent, &rec.Score, &rec.HasDeposit, &documents,
		&lastLoginAt, &rec.CreatedAt,
	); err != nil {
		return entities.Record{}, err
	}

	rec.FirstName = deref(firstName)
	rec.LastName = deref(lastName)
	rec.FullName = deref(fullName)
	rec.Email = deref(email)
	rec.PhoneNumber = deref(phone)
	rec.SecondaryPhoneNumber = deref(secondaryPhone)
	rec.AlternatePhoneNumber = deref(alternatePhone)
	rec.AccountID = deref(accountID)
	rec.AvatarURL = deref(avatarURL)
	rec.Language = deref(language)
	rec.CountryCode = deref(countryCode)
	rec.Country = deref(country)
	rec.City = deref(city)
	rec.Status = deref(status)
	rec.Source = deref(source)
	rec.Desk = deref(desk)
	rec.Agent = deref(agent)
	rec.LastLoginAt = lastLoginAt

	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &rec.Documents); err != nil {
			return entities.Record{}, fmt.Errorf("decode documents of %s: %w", rec.ID, err)
		}
	}

	return rec, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

var _ entities.Loader = (*Repository)(nil)
