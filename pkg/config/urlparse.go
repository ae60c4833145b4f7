package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

// ParsedConnection holds the structured fields of a connection URL.
type ParsedConnection struct {
	Type     DatabaseType `json:"db_type"`
	Host     string       `json:"host"`
	Port     uint16       `json:"port"`
	Username string       `json:"username"`
	Password string       `json:"password"`
	Database *string      `json:"database,omitempty"`
}

// ParseConnectionURL parses postgres://, postgresql://, mysql://, mariadb://,
// sqlite:// and redis:// URLs into structured connection fields. Percent
// escapes in credentials are decoded. For sqlite URLs the path becomes the
// database and host/port stay empty.
func ParseConnectionURL(raw string) (*ParsedConnection, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeParse, "invalid URL")
	}

	var dbType DatabaseType
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		dbType = Postgres
	case "mysql", "mariadb":
		dbType = MySQL
	case "sqlite":
		dbType = SQLite
	case "redis":
		dbType = Redis
	default:
		return nil, dbuierrors.Newf(dbuierrors.ErrorTypeParse,
			"unsupported database scheme %q, expected postgres, postgresql, mysql, mariadb, sqlite, or redis", u.Scheme)
	}

	if dbType == SQLite {
		path := u.Path
		if u.Opaque != "" {
			path = u.Opaque
		}
		return &ParsedConnection{
			Type:     SQLite,
			Database: &path,
		}, nil
	}

	host := u.Hostname()
	if host == "" {
		return nil, dbuierrors.New(dbuierrors.ErrorTypeParse, "missing host in connection URL")
	}

	username := u.User.Username()
	// Redis allows passwordless and username-less connections
	if username == "" && dbType != Redis {
		return nil, dbuierrors.New(dbuierrors.ErrorTypeParse, "missing username in connection URL")
	}
	password, _ := u.User.Password()

	port := dbType.DefaultPort()
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, dbuierrors.Newf(dbuierrors.ErrorTypeParse, "invalid port %q", p)
		}
		port = uint16(n)
	}

	var database *string
	if len(u.Path) > 1 {
		name := u.Path[1:]
		database = &name
	}

	return &ParsedConnection{
		Type:     dbType,
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Database: database,
	}, nil
}
