// internal/database/store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

var orderByPattern = regexp.MustCompile(`^[a-z_]+( (?i:asc|desc))?$`)

// GormRecordStore is the wizard's record store backed by gorm. Rows are
// addressed by table name and written as column maps, so it works for any
// table that embeds models.BaseModel.
type GormRecordStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db, now: time.Now}
}

func (s *GormRecordStore) Create(ctx context.Context, table string, fields wizard.Record) (wizard.Record, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	row := columns(fields)
	row["id"] = id
	row["created_at"] = now
	row["updated_at"] = now

	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return nil, &wizard.StoreError{Op: "create", Table: table, Err: err}
	}

	created := copyRecord(fields)
	created["id"] = id
	created["created_at"] = now
	created["updated_at"] = now
	return created, nil
}

func (s *GormRecordStore) Update(ctx context.Context, table string, id string, fields wizard.Record) (wizard.Record, error) {
	now := s.now().UTC()

	row := columns(fields)
	delete(row, "id")
	row["updated_at"] = now

	result := s.db.WithContext(ctx).Table(table).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(row)
	if result.Error != nil {
		return nil, &wizard.StoreError{Op: "update", Table: table, Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return nil, &wizard.StoreError{Op: "update", Table: table, Err: wizard.ErrRecordNotFound}
	}

	updated := copyRecord(fields)
	updated["id"] = id
	updated["updated_at"] = now
	return updated, nil
}

// ListWhere returns the live rows matching every predicate column. A nil
// predicate value matches NULL.
func (s *GormRecordStore) ListWhere(ctx context.Context, table string, where wizard.Predicate, orderBy string) ([]wizard.Record, error) {
	query := s.db.WithContext(ctx).Table(table).Where("deleted_at IS NULL")

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		query = query.Where(clause.Eq{Column: clause.Column{Name: k}, Value: where[k]})
	}

	if orderBy != "" {
		if !orderByPattern.MatchString(orderBy) {
			return nil, &wizard.StoreError{Op: "list", Table: table, Err: fmt.Errorf("invalid order %q", orderBy)}
		}
		query = query.Order(orderBy)
	}

	rows, err := query.Rows()
	if err != nil {
		return nil, &wizard.StoreError{Op: "list", Table: table, Err: err}
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, &wizard.StoreError{Op: "list", Table: table, Err: err}
	}

	records := []wizard.Record{}
	for rows.Next() {
		values := make([]interface{}, len(names))
		for i := range values {
			values[i] = new(interface{})
		}
		if err := rows.Scan(values...); err != nil {
			return nil, &wizard.StoreError{Op: "list", Table: table, Err: err}
		}
		record := make(wizard.Record, len(names))
		for i, name := range names {
			record[name] = plainValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &wizard.StoreError{Op: "list", Table: table, Err: err}
	}
	return records, nil
}

// plainValue unwraps a scanned column into the value a Record holds: text
// columns come back as string whatever the driver hands over.
func plainValue(v interface{}) interface{} {
	for {
		p, ok := v.(*interface{})
		if !ok {
			break
		}
		if p == nil {
			return nil
		}
		v = *p
	}
	switch b := v.(type) {
	case []byte:
		return string(b)
	case sql.RawBytes:
		return string(b)
	}
	return v
}

// columns converts list values to the array types the drivers understand.
func columns(fields wizard.Record) map[string]interface{} {
	row := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		switch list := v.(type) {
		case []string:
			row[k] = pq.StringArray(list)
		case []int64:
			row[k] = pq.Int64Array(list)
		case []int:
			ints := make(pq.Int64Array, len(list))
			for i, n := range list {
				ints[i] = int64(n)
			}
			row[k] = ints
		default:
			row[k] = v
		}
	}
	return row
}

func copyRecord(r wizard.Record) wizard.Record {
	out := make(wizard.Record, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	return out
}
