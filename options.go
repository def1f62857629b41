package mysql

import (
	"crypto/x509"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	goos      = runtime.GOOS
	goarch    = runtime.GOARCH
	goVersion = runtime.Version()
)

// Options configures a connection or pool (spec §6).
type Options struct {
	// Network/Address are passed to net.Dial, e.g. ("tcp", "127.0.0.1:3306")
	// or ("unix", "/var/run/mysqld/mysqld.sock").
	Network string
	Address string

	Username string
	Password string
	Database string

	// TLS, when non-nil, requests a TLS upgrade via SSLRequest before the
	// handshake response is sent. A nil RootCAs verifies against the host's
	// system roots; verification is skipped only when InsecureSkipVerify is
	// set.
	TLS *TLSConfig

	// AllowLocalInfile must be set explicitly to permit LOAD DATA LOCAL
	// INFILE; otherwise the client refuses local file requests regardless
	// of what the server asks for (spec §4.7).
	AllowLocalInfile bool

	// AllowNativePasswords is not consulted by Open: when the server
	// proposes no plugin, the client always falls back to
	// mysql_native_password, whatever this field holds.
	AllowNativePasswords bool

	// Compress enables the compressed packet framing (spec §4.2) when the
	// server also supports it. CompressAlgorithm selects "zlib" (default)
	// or "zstd".
	Compress         bool
	CompressAlgorithm string

	// ConnectTimeout bounds the TCP dial; the handshake read is bounded only
	// by the deadline of the ctx passed to Open. ReadTimeout and
	// WriteTimeout, when non-zero, are used only by Query, and only when its
	// ctx carries no deadline: the larger of the two becomes one deadline on
	// the connection. Other commands are bounded by their ctx alone.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// ConnectAttrs are sent via CLIENT_CONNECT_ATTRS. A nil map uses
	// defaultConnectAttrs().
	ConnectAttrs map[string]string

	// Logger receives structured protocol-level events. A nil Logger
	// disables logging entirely.
	Logger *logrus.Logger

	// PubKeyCache overrides the process-wide default RSA public key
	// cache used by caching_sha2_password/sha256_password full auth.
	PubKeyCache PubKeyCache
}

// TLSConfig mirrors the subset of crypto/tls.Config this client acts on.
type TLSConfig struct {
	RootCAs            *x509.CertPool
	InsecureSkipVerify bool
	ServerName         string
}

func defaultConnectAttrs() map[string]string {
	return map[string]string{
		"_client_name":     "gomysql",
		"_os":              goos,
		"_platform":        goarch,
		"_runtime_version": goVersion,
	}
}

func (o *Options) logger() *logrus.Logger {
	if o.Logger == nil {
		return nil
	}
	return o.Logger
}

func (o *Options) pubKeyCache() PubKeyCache {
	if o.PubKeyCache != nil {
		return o.PubKeyCache
	}
	return defaultPubKeyCache
}

func (o *Options) connectAttrs() map[string]string {
	if o.ConnectAttrs != nil {
		return o.ConnectAttrs
	}
	return defaultConnectAttrs()
}
