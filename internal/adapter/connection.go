package adapter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConnectionOptions 连接参数
//
// 给出 URL 时以 URL 为准，可以带 jdbc: 前缀；否则由 Server/Host/Port/Database 拼出 DSN。
// User/Password 非空时覆盖 URL 里的账号。
type ConnectionOptions struct {
	URL      string
	Server   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// Params 附加的连接参数
	Params map[string]string
}

// Resolve 确定方言并生成驱动 DSN
func (o ConnectionOptions) Resolve() (*Dialect, string, error) {
	if o.URL != "" {
		return o.resolveURL()
	}
	if o.Server == "" {
		return nil, "", fmt.Errorf("%w: no connection URL or server type given", ErrUnsupportedDriver)
	}
	d, err := LookupDialect(o.Server)
	if err != nil {
		return nil, "", err
	}
	if o.Port == 0 {
		o.Port = d.DefaultPort
	}
	dsn, err := d.dsn(o)
	if err != nil {
		return nil, "", err
	}
	return d, dsn, nil
}

// resolveURL 解析 URL，拆成连接参数后交给方言重新生成 DSN
func (o ConnectionOptions) resolveURL() (*Dialect, string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(o.URL), "jdbc:")

	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, "", fmt.Errorf("%w: cannot determine server type from %q", ErrUnsupportedDriver, redact(o.URL))
	}
	d, err := LookupDialect(scheme)
	if err != nil {
		return nil, "", err
	}

	parsed := ConnectionOptions{
		Server:   d.Name,
		User:     o.User,
		Password: o.Password,
		Params:   map[string]string{},
	}

	if d.Name == "sqlite" {
		parsed.Database = strings.TrimPrefix(rest, "//")
		if path, query, ok := strings.Cut(parsed.Database, "?"); ok {
			parsed.Database = path
			addQueryParams(parsed.Params, query)
		}
	} else {
		if !strings.HasPrefix(rest, "//") {
			return nil, "", fmt.Errorf("invalid %s connection URL %q", d.Name, redact(o.URL))
		}
		// jdbc:sqlserver://host:1433;databaseName=x;user=y
		hostPart, props, _ := strings.Cut(rest[2:], ";")
		u, err := url.Parse("//" + hostPart)
		if err != nil {
			return nil, "", fmt.Errorf("invalid %s connection URL: %w", d.Name, err)
		}
		parsed.Host = u.Hostname()
		if p := u.Port(); p != "" {
			if parsed.Port, err = strconv.Atoi(p); err != nil {
				return nil, "", fmt.Errorf("invalid port %q in connection URL", p)
			}
		}
		parsed.Database = strings.TrimPrefix(u.Path, "/")
		if u.User != nil {
			if parsed.User == "" {
				parsed.User = u.User.Username()
			}
			if pw, ok := u.User.Password(); ok && parsed.Password == "" {
				parsed.Password = pw
			}
		}
		addQueryParams(parsed.Params, u.RawQuery)
		for _, prop := range strings.Split(props, ";") {
			k, v, ok := strings.Cut(prop, "=")
			if !ok || k == "" {
				continue
			}
			switch strings.ToLower(k) {
			case "databasename", "database":
				parsed.Database = v
			case "user":
				if parsed.User == "" {
					parsed.User = v
				}
			case "password":
				if parsed.Password == "" {
					parsed.Password = v
				}
			default:
				parsed.Params[k] = v
			}
		}
	}

	for k, v := range o.Params {
		parsed.Params[k] = v
	}
	return parsed.Resolve()
}

func addQueryParams(dst map[string]string, rawQuery string) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return
	}
	for k := range values {
		dst[k] = values.Get(k)
	}
}

// redact 隐藏 URL 里的密码，用于错误信息
func redact(raw string) string {
	u, err := url.Parse(strings.TrimPrefix(raw, "jdbc:"))
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

func hostPort(o ConnectionOptions) string {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	if o.Port == 0 {
		return host
	}
	return host + ":" + strconv.Itoa(o.Port)
}

func userInfo(o ConnectionOptions) *url.Userinfo {
	switch {
	case o.User == "":
		return nil
	case o.Password == "":
		return url.User(o.User)
	}
	return url.UserPassword(o.User, o.Password)
}
