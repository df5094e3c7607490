package magento

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/tidycode/magetui/internal/config"
)

// Connection is the resolved MySQL connection for the installation.
type Connection struct {
	Host     string
	Port     int
	Socket   string
	Name     string
	User     string
	Password string
	Prefix   string
}

// ConnectionFromEnv reads db.connection.default and db.table_prefix from a
// decoded env.php. Hosts may carry a port ("db:3307") or a socket
// ("localhost:/run/mysqld/mysqld.sock").
func ConnectionFromEnv(env map[string]any) Connection {
	c := Connection{
		Name:     LookupString(env, "db", "connection", "default", "dbname"),
		User:     LookupString(env, "db", "connection", "default", "username"),
		Password: LookupString(env, "db", "connection", "default", "password"),
		Prefix:   LookupString(env, "db", "table_prefix"),
	}
	c.setHost(LookupString(env, "db", "connection", "default", "host"))
	return c
}

func (c *Connection) setHost(host string) {
	c.Port = 3306
	c.Host = "localhost"
	if host == "" {
		return
	}
	if strings.HasPrefix(host, "/") {
		c.Socket = host
		return
	}
	h, rest, found := strings.Cut(host, ":")
	c.Host = h
	if !found {
		return
	}
	if strings.HasPrefix(rest, "/") {
		c.Socket = rest
		return
	}
	if port, err := strconv.Atoi(rest); err == nil {
		c.Port = port
	}
}

// Merge applies the non-empty fields of a config override.
func (c Connection) Merge(o config.Database) Connection {
	if o.Host != "" {
		c.Socket = ""
		c.setHost(o.Host)
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.User != "" {
		c.User = o.User
	}
	if o.Password != "" {
		c.Password = o.Password
	}
	return c
}

// Table returns name with the installation's table prefix.
func (c Connection) Table(name string) string {
	return c.Prefix + name
}

// DSN formats the connection for go-sql-driver/mysql.
func (c Connection) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	if c.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = c.Socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	return cfg.FormatDSN()
}

// OpenDB opens a small pool against the installation database.
func OpenDB(c Connection) (*sql.DB, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("open database: no database name configured")
	}
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}
