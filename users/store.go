package users

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// importBatchSize is how many rows are buffered per INSERT during CSV import.
const importBatchSize = 1000

// ErrMissingHeaders is returned when the CSV lacks the required columns.
var ErrMissingHeaders = errors.New("users: csv must have name, email and age columns")

// Store provides seeding and streaming access to the user_data table.
type Store struct {
	db  *bun.DB
	log *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for import progress reporting.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a Store over the given bun database handle.
func NewStore(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the user_data table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Count reports the number of rows in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*User)(nil)).Count(ctx)
}

// ImportStats summarizes one CSV import.
type ImportStats struct {
	Inserted int
	Skipped  int
}

// ImportCSV reads user rows from r and inserts them in batches of 1000.
// The header must include name, email and age; a user_id column is optional
// and ids are generated for rows that lack one. Rows whose age fails to
// parse are skipped and counted, not fatal. Deeper data validation is out of
// scope here and belongs to whoever produces the CSV.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, ErrMissingHeaders
		}
		return stats, fmt.Errorf("users: read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	nameIdx, okName := cols["name"]
	emailIdx, okEmail := cols["email"]
	ageIdx, okAge := cols["age"]
	if !okName || !okEmail || !okAge {
		return stats, ErrMissingHeaders
	}
	idIdx, hasID := cols["user_id"]

	batch := make([]User, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := s.db.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return fmt.Errorf("users: insert batch: %w", err)
		}
		stats.Inserted += len(batch)
		s.log.Info("imported batch", zap.Int("rows", len(batch)), zap.Int("total", stats.Inserted))
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("users: read csv row: %w", err)
		}

		user, ok := s.rowToUser(record, nameIdx, emailIdx, ageIdx, idIdx, hasID)
		if !ok {
			stats.Skipped++
			continue
		}
		batch = append(batch, user)
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	s.log.Info("import complete", zap.Int("inserted", stats.Inserted), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (s *Store) rowToUser(record []string, nameIdx, emailIdx, ageIdx, idIdx int, hasID bool) (User, bool) {
	if nameIdx >= len(record) || emailIdx >= len(record) || ageIdx >= len(record) {
		return User{}, false
	}

	name := strings.TrimSpace(record[nameIdx])
	email := strings.TrimSpace(record[emailIdx])
	if name == "" || email == "" {
		return User{}, false
	}

	// Source data carries ages as DECIMAL(3,0); accept "25.0" as 25.
	age, err := strconv.ParseFloat(strings.TrimSpace(record[ageIdx]), 64)
	if err != nil {
		return User{}, false
	}

	id := ""
	if hasID && idIdx < len(record) {
		id = strings.TrimSpace(record[idIdx])
	}
	if id == "" {
		id = uuid.New().String()
	}

	return User{ID: id, Name: name, Email: email, Age: int(age)}, true
}

// Stream invokes fn once per row, one row at a time, without loading the
// table into memory. Iteration stops at the first fn error.
func (s *Store) Stream(ctx context.Context, fn func(User) error) error {
	rows, err := s.db.NewSelect().Model((*User)(nil)).Rows(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var user User
		if err := s.db.ScanRow(ctx, rows, &user); err != nil {
			return err
		}
		if err := fn(user); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Page fetches one page of users with LIMIT/OFFSET ordering by user_id.
func (s *Store) Page(ctx context.Context, pageSize, offset int) ([]User, error) {
	var page []User
	err := s.db.NewSelect().
		Model(&page).
		Order("user_id").
		Limit(pageSize).
		Offset(offset).
		Scan(ctx)
	return page, err
}

// ScanPages lazily fetches pages of pageSize users and passes each to fn,
// stopping on the first empty page or fn error.
func (s *Store) ScanPages(ctx context.Context, pageSize int, fn func([]User) error) error {
	for offset := 0; ; offset += pageSize {
		page, err := s.Page(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
	}
}

// ProcessBatches streams the table and hands fn slices of up to batchSize
// users, a cursor-side analogue of fetchmany.
func (s *Store) ProcessBatches(ctx context.Context, batchSize int, fn func([]User) error) error {
	batch := make([]User, 0, batchSize)
	err := s.Stream(ctx, func(u User) error {
		batch = append(batch, u)
		if len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// AverageAge streams ages and returns their mean, 0 for an empty table.
func (s *Store) AverageAge(ctx context.Context) (float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT age FROM user_data")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	total, count := 0, 0
	for rows.Next() {
		var age int
		if err := rows.Scan(&age); err != nil {
			return 0, err
		}
		total += age
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return float64(total) / float64(count), nil
}
