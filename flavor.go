package ygggo_db

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Flavor identifies a supported database variant. Each flavor is an
// immutable, process-wide lookup table of SQL syntax differences.
type Flavor int

const (
	FlavorUnknown Flavor = iota
	FlavorGeneric
	FlavorDerby
	FlavorOracle
	FlavorPostgreSQL
	FlavorSQLServer
	FlavorHSQLDB
	FlavorMySQL
	FlavorSQLite
)

// flavorInfo is one record of the static per-variant table. No virtual
// dispatch; every difference between databases lives here.
type flavorInfo struct {
	name string

	typeInteger   string
	typeLong      string
	typeFloat     string
	typeDouble    string
	typeClob      string
	typeBlob      string
	typeTimestamp string

	// sequence syntax; empty string means the variant has no sequences
	seqNextVal       string // fragment usable inside insert values, %s = sequence name
	seqSelectNextVal string // standalone statement reading the next value
	seqDrop          string
	seqCacheClause   string // %d = values to cache
	seqOrderClause   string
	seqCycleClause   string

	dbNow   string // server-side current time expression
	fromAny string // suffix for constant selects, e.g. " from dual"

	supportsInsertReturning bool
	useStringForClob        bool
	useBytesForBlob         bool
	autoCommitOnly          bool

	dateAsSQL func(t time.Time) string
}

var flavors = map[Flavor]flavorInfo{
	FlavorGeneric: {
		name:             "generic",
		typeInteger:      "integer",
		typeLong:         "bigint",
		typeFloat:        "real",
		typeDouble:       "double precision",
		typeClob:         "clob",
		typeBlob:         "blob",
		typeTimestamp:    "timestamp",
		seqNextVal:       "next value for %s",
		seqSelectNextVal: "select next value for %s",
		seqDrop:          "drop sequence %s",
		seqCacheClause:   " cache %d",
		seqCycleClause:   " cycle",
		dbNow:            "current_timestamp",
		useStringForClob: true,
		useBytesForBlob:  true,
		dateAsSQL:        ansiDateAsSQL,
	},
	FlavorDerby: {
		name:             "derby",
		typeInteger:      "integer",
		typeLong:         "bigint",
		typeFloat:        "real",
		typeDouble:       "double",
		typeClob:         "clob",
		typeBlob:         "blob",
		typeTimestamp:    "timestamp",
		seqNextVal:       "next value for %s",
		seqSelectNextVal: "values next value for %s",
		seqDrop:          "drop sequence %s restrict",
		seqOrderClause:   " order",
		seqCycleClause:   " cycle",
		dbNow:            "current_timestamp",
		fromAny:          " from sysibm.sysdummy1",
		dateAsSQL:        ansiDateAsSQL,
	},
	FlavorOracle: {
		name:                    "oracle",
		typeInteger:             "number(10)",
		typeLong:                "number(19)",
		typeFloat:               "binary_float",
		typeDouble:              "binary_double",
		typeClob:                "clob",
		typeBlob:                "blob",
		typeTimestamp:           "timestamp(3)",
		seqNextVal:              "%s.nextval",
		seqSelectNextVal:        "select %s.nextval from dual",
		seqDrop:                 "drop sequence %s",
		seqCacheClause:          " cache %d",
		seqOrderClause:          " order",
		seqCycleClause:          " cycle",
		dbNow:                   "systimestamp",
		fromAny:                 " from dual",
		supportsInsertReturning: true,
		dateAsSQL:               ansiDateAsSQL,
	},
	FlavorPostgreSQL: {
		name:                    "postgresql",
		typeInteger:             "integer",
		typeLong:                "bigint",
		typeFloat:               "real",
		typeDouble:              "double precision",
		typeClob:                "text",
		typeBlob:                "bytea",
		typeTimestamp:           "timestamp(3)",
		seqNextVal:              "nextval('%s')",
		seqSelectNextVal:        "select nextval('%s')",
		seqDrop:                 "drop sequence %s",
		seqCacheClause:          " cache %d",
		seqCycleClause:          " cycle",
		dbNow:                   "now()",
		supportsInsertReturning: true,
		useStringForClob:        true,
		useBytesForBlob:         true,
		dateAsSQL:               ansiDateAsSQL,
	},
	FlavorSQLServer: {
		name:             "sqlserver",
		typeInteger:      "int",
		typeLong:         "bigint",
		typeFloat:        "real",
		typeDouble:       "float",
		typeClob:         "varchar(max)",
		typeBlob:         "varbinary(max)",
		typeTimestamp:    "datetime2(3)",
		seqNextVal:       "next value for %s",
		seqSelectNextVal: "select next value for %s",
		seqDrop:          "drop sequence %s",
		seqCacheClause:   " cache %d",
		seqCycleClause:   " cycle",
		dbNow:            "getdate()",
		useStringForClob: true,
		useBytesForBlob:  true,
		dateAsSQL:        ansiDateAsSQL,
	},
	FlavorHSQLDB: {
		name:             "hsqldb",
		typeInteger:      "integer",
		typeLong:         "bigint",
		typeFloat:        "double",
		typeDouble:       "double",
		typeClob:         "clob",
		typeBlob:         "blob",
		typeTimestamp:    "timestamp(3)",
		seqNextVal:       "next value for %s",
		seqSelectNextVal: "select next value for %s from (values(0))",
		seqDrop:          "drop sequence %s",
		seqCycleClause:   " cycle",
		dbNow:            "current_timestamp",
		fromAny:          " from (values(0))",
		useStringForClob: true,
		useBytesForBlob:  true,
		dateAsSQL:        ansiDateAsSQL,
	},
	// MySQL has no sequences; generated keys come back natively.
	FlavorMySQL: {
		name:                    "mysql",
		typeInteger:             "int",
		typeLong:                "bigint",
		typeFloat:               "float",
		typeDouble:              "double",
		typeClob:                "longtext",
		typeBlob:                "longblob",
		typeTimestamp:           "datetime(3)",
		dbNow:                   "now(3)",
		supportsInsertReturning: true,
		useStringForClob:        true,
		useBytesForBlob:         true,
		dateAsSQL:               ansiDateAsSQL,
	},
	FlavorSQLite: {
		name:                    "sqlite",
		typeInteger:             "integer",
		typeLong:                "integer",
		typeFloat:               "real",
		typeDouble:              "real",
		typeClob:                "text",
		typeBlob:                "blob",
		typeTimestamp:           "timestamp",
		dbNow:                   "current_timestamp",
		supportsInsertReturning: true,
		useStringForClob:        true,
		useBytesForBlob:         true,
		dateAsSQL:               ansiDateAsSQL,
	},
}

func ansiDateAsSQL(t time.Time) string {
	return "timestamp '" + t.Truncate(time.Millisecond).Format("2006-01-02 15:04:05.000") + "'"
}

func (f Flavor) info() flavorInfo {
	fi, ok := flavors[f]
	if !ok {
		return flavors[FlavorGeneric]
	}
	return fi
}

func (f Flavor) String() string {
	if f == FlavorUnknown {
		return "unknown"
	}
	return f.info().name
}

// Column type names.

func (f Flavor) TypeInteger() string   { return f.info().typeInteger }
func (f Flavor) TypeLong() string      { return f.info().typeLong }
func (f Flavor) TypeFloat() string     { return f.info().typeFloat }
func (f Flavor) TypeDouble() string    { return f.info().typeDouble }
func (f Flavor) TypeClob() string      { return f.info().typeClob }
func (f Flavor) TypeBlob() string      { return f.info().typeBlob }
func (f Flavor) TypeTimestamp() string { return f.info().typeTimestamp }

// TypeDecimal returns the fixed-point type name with the given size and
// precision, e.g. "numeric(19,4)".
func (f Flavor) TypeDecimal(size, precision int) string {
	return fmt.Sprintf("numeric(%d,%d)", size, precision)
}

// TypeVarchar returns the variable-length string type name.
func (f Flavor) TypeVarchar(length int) string {
	if f == FlavorOracle {
		return fmt.Sprintf("varchar2(%d)", length)
	}
	return fmt.Sprintf("varchar(%d)", length)
}

// TypeChar returns the fixed-length string type name.
func (f Flavor) TypeChar(length int) string {
	return fmt.Sprintf("char(%d)", length)
}

// Sequence syntax.

// SupportsSequences reports whether the variant has database sequences.
func (f Flavor) SupportsSequences() bool { return f.info().seqNextVal != "" }

// SequenceNextVal returns the expression yielding the next sequence value,
// usable inside an insert statement.
func (f Flavor) SequenceNextVal(name string) string {
	fi := f.info()
	if fi.seqNextVal == "" {
		return ""
	}
	return fmt.Sprintf(fi.seqNextVal, name)
}

// SequenceSelectNextVal returns a standalone statement that reads the next
// sequence value.
func (f Flavor) SequenceSelectNextVal(name string) string {
	fi := f.info()
	if fi.seqSelectNextVal == "" {
		return ""
	}
	return fmt.Sprintf(fi.seqSelectNextVal, name)
}

// SequenceDrop returns the drop-sequence statement.
func (f Flavor) SequenceDrop(name string) string {
	fi := f.info()
	if fi.seqDrop == "" {
		return ""
	}
	return fmt.Sprintf(fi.seqDrop, name)
}

// SequenceCacheClause returns the clause requesting the given cache size,
// or "" when the variant has no such clause.
func (f Flavor) SequenceCacheClause(values int) string {
	fi := f.info()
	if fi.seqCacheClause == "" {
		return ""
	}
	return fmt.Sprintf(fi.seqCacheClause, values)
}

func (f Flavor) SequenceOrderClause() string { return f.info().seqOrderClause }
func (f Flavor) SequenceCycleClause() string { return f.info().seqCycleClause }

// Misc capabilities.

// DBNow returns the server-side current-time expression.
func (f Flavor) DBNow() string { return f.info().dbNow }

// FromAny returns the dialect-specific suffix for constant selects, so
// "select 1" + FromAny() is valid everywhere.
func (f Flavor) FromAny() string { return f.info().fromAny }

// SupportsInsertReturning reports whether a generated key can be obtained
// from the insert itself, without a separate sequence read.
func (f Flavor) SupportsInsertReturning() bool { return f.info().supportsInsertReturning }

// UseStringForClob reports whether clob values bind as strings rather than
// byte slices.
func (f Flavor) UseStringForClob() bool { return f.info().useStringForClob }

// UseBytesForBlob reports whether blob values bind as byte slices rather
// than strings.
func (f Flavor) UseBytesForBlob() bool { return f.info().useBytesForBlob }

// AutoCommitOnly reports whether the variant forbids disabling autocommit.
func (f Flavor) AutoCommitOnly() bool { return f.info().autoCommitOnly }

// DateAsSQL renders a literal timestamp as a dialect SQL expression.
func (f Flavor) DateAsSQL(t time.Time) string { return f.info().dateAsSQL(t) }

// flavorPrefixes maps connection-string prefixes to flavors. Longest match
// wins so "postgresql://" is tried before "postgres://".
var flavorPrefixes = map[string]Flavor{
	"postgresql://": FlavorPostgreSQL,
	"postgres://":   FlavorPostgreSQL,
	"mysql://":      FlavorMySQL,
	"mariadb://":    FlavorMySQL,
	"oracle://":     FlavorOracle,
	"sqlserver://":  FlavorSQLServer,
	"mssql://":      FlavorSQLServer,
	"derby:":        FlavorDerby,
	"hsqldb:":       FlavorHSQLDB,
	"sqlite://":     FlavorSQLite,
	"sqlite:":       FlavorSQLite,
	"file:":         FlavorSQLite,
}

// FlavorFromURL derives the flavor from a connection string prefix. Unknown
// prefixes are a hard error so dialect-incorrect SQL is never generated
// silently; pass an explicit Options.Flavor to override.
func FlavorFromURL(url string) (Flavor, error) {
	lower := strings.ToLower(url)
	prefixes := make([]string, 0, len(flavorPrefixes))
	for p := range flavorPrefixes {
		prefixes = append(prefixes, p)
	}
	// longest/most-specific first
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return flavorPrefixes[p], nil
		}
	}
	return FlavorUnknown, fmt.Errorf("no database flavor matches connection string prefix %q; set Options.Flavor explicitly", truncateForLog(url, 32))
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
