package sqlprobe

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
)

// Supported values of Config.Driver.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMSSQL    = "mssql"
)

// DSN returns the database/sql driver name and data source name for cfg.
func DSN(cfg Config) (driverName, dsn string, err error) {
	sslMode := strings.ToLower(strings.TrimSpace(cfg.SSLMode))
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "postgresql":
		port := portOr(cfg.Port, 5432)
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, port, quotePQ(cfg.User), quotePQ(cfg.Password), quotePQ(cfg.Database), sslMode)
		return "postgres", dsn, nil

	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, 3306)))
		mc.DBName = cfg.Database
		mc.ParseTime = true
		switch sslMode {
		case "", "disable":
		default:
			mc.TLSConfig = "true"
		}
		return "mysql", mc.FormatDSN(), nil

	case DriverMSSQL, "sqlserver":
		encrypt := "true"
		if sslMode == "disable" {
			encrypt = "disable"
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, 1433))),
			RawQuery: url.Values{"database": {cfg.Database}, "encrypt": {encrypt}}.Encode(),
		}
		return "sqlserver", u.String(), nil
	}
	return "", "", fmt.Errorf("sqlprobe: unsupported driver %q", cfg.Driver)
}

func portOr(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}

// quotePQ quotes a libpq keyword value when it is empty or contains
// spaces, quotes or backslashes.
func quotePQ(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
