package database

import (
	"fmt"
	"strings"
)

// Expr is a default value rendered verbatim, e.g. Expr("CURRENT_TIMESTAMP")
type Expr string

// CurrentTimestamp is the portable "now" default
const CurrentTimestamp = Expr("CURRENT_TIMESTAMP")

// Manifest is the ordered set of tables an application expects to exist.
// Order matters: a table must come after every table it references.
type Manifest struct {
	tables []*Blueprint
}

// NewManifest creates an empty manifest
func NewManifest() *Manifest {
	return &Manifest{}
}

// Create appends a table definition to the manifest
func (m *Manifest) Create(tableName string, callback func(table *Blueprint)) *Manifest {
	blueprint := NewBlueprint(tableName)
	callback(blueprint)
	m.tables = append(m.tables, blueprint)
	return m
}

// Tables returns the table definitions in declaration order
func (m *Manifest) Tables() []*Blueprint {
	return m.tables
}

// Table looks a definition up by name
func (m *Manifest) Table(name string) *Blueprint {
	for _, t := range m.tables {
		if t.tableName == name {
			return t
		}
	}
	return nil
}

// Blueprint represents a table blueprint for building schema
type Blueprint struct {
	tableName string
	columns   []Column
	indexes   []Index
	foreign   []ForeignKey
}

// NewBlueprint creates a new Blueprint
func NewBlueprint(tableName string) *Blueprint {
	return &Blueprint{tableName: tableName}
}

// Name returns the table name
func (b *Blueprint) Name() string {
	return b.tableName
}

// Columns returns the column definitions
func (b *Blueprint) Columns() []Column {
	return b.columns
}

// Column represents a database column
type Column struct {
	Name     string
	Type     string
	Length   int
	Nullable bool
	Default  any
	Unique   bool
	Primary  bool
}

// Index represents a database index
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Column     string
	References string
	On         string
	OnDelete   string
}

func (b *Blueprint) add(col Column) *Blueprint {
	b.columns = append(b.columns, col)
	return b
}

// ID creates an auto-incrementing integer primary key named "id"
func (b *Blueprint) ID() *Blueprint {
	return b.add(Column{Name: "id", Type: "id", Primary: true})
}

// ForeignID creates an integer column type-compatible with ID
func (b *Blueprint) ForeignID(name string) *Blueprint {
	return b.add(Column{Name: name, Type: "foreign_id", Nullable: true})
}

// String creates a VARCHAR column, 255 long unless a length is given
func (b *Blueprint) String(name string, length ...int) *Blueprint {
	col := Column{Name: name, Type: "string", Length: 255, Nullable: true}
	if len(length) > 0 {
		col.Length = length[0]
	}
	return b.add(col)
}

// Text creates a TEXT column
func (b *Blueprint) Text(name string) *Blueprint {
	return b.add(Column{Name: name, Type: "text", Nullable: true})
}

// Integer creates an INT column
func (b *Blueprint) Integer(name string) *Blueprint {
	return b.add(Column{Name: name, Type: "integer", Nullable: true})
}

// Boolean creates a BOOLEAN column
func (b *Blueprint) Boolean(name string) *Blueprint {
	return b.add(Column{Name: name, Type: "boolean", Nullable: true})
}

// Timestamp creates a timezone-aware timestamp column
func (b *Blueprint) Timestamp(name string) *Blueprint {
	return b.add(Column{Name: name, Type: "timestamp", Nullable: true})
}

// Column modifier methods - chainable, applied to the last column

func (b *Blueprint) last() *Column {
	if len(b.columns) == 0 {
		return &Column{}
	}
	return &b.columns[len(b.columns)-1]
}

// NotNullable makes the column NOT NULL
func (b *Blueprint) NotNullable() *Blueprint {
	b.last().Nullable = false
	return b
}

// Nullable makes the column nullable
func (b *Blueprint) Nullable() *Blueprint {
	b.last().Nullable = true
	return b
}

// Default sets a default value
func (b *Blueprint) Default(value any) *Blueprint {
	b.last().Default = value
	return b
}

// Unique makes the column unique
func (b *Blueprint) Unique() *Blueprint {
	b.last().Unique = true
	return b
}

// Primary makes the column the primary key
func (b *Blueprint) Primary() *Blueprint {
	col := b.last()
	col.Primary = true
	col.Nullable = false
	return b
}

// Index creates a secondary index
func (b *Blueprint) Index(columns ...string) *Blueprint {
	b.indexes = append(b.indexes, Index{
		Name:    fmt.Sprintf("idx_%s_%s", b.tableName, strings.Join(columns, "_")),
		Columns: columns,
	})
	return b
}

// UniqueIndex creates a unique secondary index
func (b *Blueprint) UniqueIndex(columns ...string) *Blueprint {
	b.indexes = append(b.indexes, Index{
		Name:    fmt.Sprintf("unique_%s_%s", b.tableName, strings.Join(columns, "_")),
		Columns: columns,
		Unique:  true,
	})
	return b
}

// Foreign starts a foreign key definition
func (b *Blueprint) Foreign(column string) *ForeignKeyBuilder {
	return &ForeignKeyBuilder{
		blueprint: b,
		fk:        ForeignKey{Column: column, References: "id"},
	}
}

// ForeignKeyBuilder helps build foreign key constraints
type ForeignKeyBuilder struct {
	blueprint *Blueprint
	fk        ForeignKey
}

// References sets the referenced column
func (fkb *ForeignKeyBuilder) References(column string) *ForeignKeyBuilder {
	fkb.fk.References = column
	return fkb
}

// On sets the referenced table
func (fkb *ForeignKeyBuilder) On(table string) *ForeignKeyBuilder {
	fkb.fk.On = table
	return fkb
}

// OnDelete sets the ON DELETE action
func (fkb *ForeignKeyBuilder) OnDelete(action string) *ForeignKeyBuilder {
	fkb.fk.OnDelete = action
	return fkb
}

// Finish completes the foreign key definition
func (fkb *ForeignKeyBuilder) Finish() *Blueprint {
	fkb.blueprint.foreign = append(fkb.blueprint.foreign, fkb.fk)
	return fkb.blueprint
}

// CreateStatements renders CREATE TABLE followed by one CREATE INDEX per
// secondary index. Every statement ends with a semicolon.
func (b *Blueprint) CreateStatements(dialect string) []string {
	var sql strings.Builder

	fmt.Fprintf(&sql, "CREATE TABLE %s (\n", b.tableName)

	lines := make([]string, 0, len(b.columns)+len(b.foreign))
	for _, col := range b.columns {
		lines = append(lines, columnToSQL(col, dialect))
	}
	for _, fk := range b.foreign {
		lines = append(lines, foreignKeyToSQL(fk))
	}

	sql.WriteString("  " + strings.Join(lines, ",\n  "))
	sql.WriteString("\n);")

	statements := []string{sql.String()}
	for _, idx := range b.indexes {
		statements = append(statements, b.indexToSQL(idx))
	}

	return statements
}

// DropStatement renders the reverse of CreateStatements
func (b *Blueprint) DropStatement(dialect string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", b.tableName)
}

func columnToSQL(col Column, dialect string) string {
	parts := []string{col.Name, columnType(col, dialect)}

	if col.Primary && col.Type != "id" {
		parts = append(parts, "PRIMARY KEY")
	}

	if !col.Nullable && !col.Primary {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, "DEFAULT "+defaultToSQL(col.Default, dialect))
	}

	if col.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

func defaultToSQL(value any, dialect string) string {
	switch v := value.(type) {
	case Expr:
		return string(v)
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		if dialect == "postgres" {
			return strings.ToUpper(fmt.Sprintf("%t", v))
		}
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// columnType returns database-specific column type
func columnType(col Column, dialect string) string {
	switch col.Type {
	case "id":
		switch dialect {
		case "mysql":
			return "INT AUTO_INCREMENT PRIMARY KEY"
		case "postgres":
			return "SERIAL PRIMARY KEY"
		default:
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	case "foreign_id", "integer":
		if dialect == "mysql" {
			return "INT"
		}
		return "INTEGER"
	case "string":
		return fmt.Sprintf("VARCHAR(%d)", col.Length)
	case "text":
		return "TEXT"
	case "boolean":
		if dialect == "mysql" {
			return "TINYINT(1)"
		}
		return "BOOLEAN"
	case "timestamp":
		if dialect == "postgres" {
			return "TIMESTAMP WITH TIME ZONE"
		}
		return "DATETIME"
	default:
		return "VARCHAR(255)"
	}
}

func (b *Blueprint) indexToSQL(idx Index) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s);", kind, idx.Name, b.tableName, strings.Join(idx.Columns, ", "))
}

func foreignKeyToSQL(fk ForeignKey) string {
	sql := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", fk.Column, fk.On, fk.References)

	if fk.OnDelete != "" {
		sql += " ON DELETE " + fk.OnDelete
	}

	return sql
}
