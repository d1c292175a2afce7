// Package sqlprobe checks relational databases through database/sql.
//
// PostgreSQL (lib/pq), MySQL (go-sql-driver/mysql) and SQL Server
// (go-mssqldb) are supported. The strategy pings the database; the
// "sql.query" collector runs a query and reports its row count and first
// value. Passwords are usually secret references.
package sqlprobe
