package sqlstore

// dialect holds the driver name and DDL for one SQL engine. Both engines
// take "?" placeholders.
type dialect struct {
	driver string
	ddl    []string
}

// Sheet grid tables. sheet_rows holds one JSON array of cells per populated
// row; rows missing from the table read as empty.
var sqliteDialect = dialect{
	driver: "sqlite",
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS sheets (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet TEXT NOT NULL,
    pos INTEGER NOT NULL,
    width INTEGER NOT NULL,
    cells TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_sheet_rows_pos ON sheet_rows (sheet, pos);`,
	},
}

var mysqlDialect = dialect{
	driver: "mysql",
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS sheets (
    seq INTEGER PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet VARCHAR(255) NOT NULL,
    pos INTEGER NOT NULL,
    width INTEGER NOT NULL,
    cells LONGTEXT NOT NULL,
    INDEX idx_sheet_rows_pos (sheet, pos)
)`,
	},
}
