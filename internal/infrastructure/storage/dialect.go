package storage

import (
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

//go:embed schema/postgres.sql
var postgresSchema string

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqliteTimeLayout is fixed-width so TEXT comparisons order chronologically.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// dialect isolates the differences between the two row stores.
type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	schema      string
}

func dialectFor(driverName string) (dialect, error) {
	switch driverName {
	case DriverSQLite:
		return dialect{name: DriverSQLite, placeholder: sq.Question, schema: sqliteSchema}, nil
	case DriverPostgres:
		return dialect{name: DriverPostgres, placeholder: sq.Dollar, schema: postgresSchema}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driverName)
	}
}

func (d dialect) timeValue(t time.Time) any {
	t = t.UTC()
	if d.name == DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func (d dialect) listValue(v []string) driver.Valuer {
	if v == nil {
		v = []string{}
	}
	if d.name == DriverPostgres {
		return pq.StringArray(v)
	}
	return jsonList(v)
}

func (d dialect) listDest(dst *[]string) sql.Scanner {
	if d.name == DriverPostgres {
		return (*pq.StringArray)(dst)
	}
	return (*jsonList)(dst)
}

// jsonList stores a string slice as JSON text.
type jsonList []string

func (l jsonList) Value() (driver.Value, error) {
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *jsonList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("jsonList: unsupported source %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("jsonList: %w", err)
	}
	*l = out
	return nil
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps from either driver. Valid is false for NULL.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("dbTime: unsupported source %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("dbTime: cannot parse %q", s)
}

func (t dbTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
