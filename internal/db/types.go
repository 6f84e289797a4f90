package db

import (
	"fmt"
	"time"

	"github.com/stacklok/docsource-server/database"
)

// sqliteTimeLayouts are the layouts SQLite columns may come back in
var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps from either dialect
type dbTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner
func (t *dbTime) Scan(value any) error {
	switch v := value.(type) {
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
		return fmt.Errorf("cannot scan %T into a timestamp", value)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Ptr returns nil for NULL timestamps
func (t dbTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// timeArg converts a timestamp into a query argument for the connection dialect
func (c *Connection) timeArg(t time.Time) any {
	if c.Driver == database.DriverSQLite {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC()
}

// nullTimeArg is timeArg for optional timestamps
func (c *Connection) nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return c.timeArg(*t)
}
