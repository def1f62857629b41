package mysql

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"sync"
)

// PubKeyCache caches the RSA public key a server sends during full
// authentication for caching_sha2_password/sha256_password, keyed by the
// address the key was fetched from. It is injected as a capability
// (Options.PubKeyCache) rather than read from a package global directly,
// but defaultPubKeyCache provides the common case of one shared instance.
type PubKeyCache interface {
	Get(addr string) (*rsa.PublicKey, bool)
	Put(addr string, key *rsa.PublicKey)
}

type syncMapPubKeyCache struct{ m sync.Map }

func (c *syncMapPubKeyCache) Get(addr string) (*rsa.PublicKey, bool) {
	v, ok := c.m.Load(addr)
	if !ok {
		return nil, false
	}
	return v.(*rsa.PublicKey), true
}

func (c *syncMapPubKeyCache) Put(addr string, key *rsa.PublicKey) {
	c.m.Store(addr, key)
}

var defaultPubKeyCache PubKeyCache = &syncMapPubKeyCache{}

// authenticate drives the authentication phase of the connection, sending
// the handshake response and resolving any AuthSwitchRequest/AuthMoreData
// exchanges until the server returns OK or ERR (spec §4.3).
func (c *Conn) authenticate(username, password, database string) error {
	plugin := c.hs.authPluginName
	switch plugin {
	case "mysql_native_password", "mysql_clear_password", "sha256_password", "caching_sha2_password":
		// supported
	case "":
		plugin = "mysql_native_password"
	default:
		return newProtocolError("unsupported auth plugin %q", plugin)
	}
	authPluginData := c.hs.authPluginData
	authResponse, err := c.encryptPassword(plugin, []byte(password), authPluginData)
	if err != nil {
		return err
	}

	w := newWriter(c.rw, &c.seq)
	err = handshakeResponse41{
		capabilityFlags: c.capabilities,
		maxPacketSize:   maxPacketSize,
		characterSet:    defaultCharset,
		username:        username,
		authResponse:    authResponse,
		database:        database,
		authPluginName:  plugin,
		connectAttrs:    c.connectAttrs,
	}.encode(w)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	numAuthSwitches := 0
AuthDone:
	for {
		r := newReader(c.rw, &c.seq)
		marker, err := r.peek()
		if err != nil {
			return err
		}
		switch marker {
		case okMarker:
			ok := &okPacket{}
			if err := ok.decode(r, c.capabilities); err != nil {
				return err
			}
			break AuthDone
		case errMarker:
			ep := &errPacket{}
			if err := ep.decode(r, c.capabilities); err != nil {
				return err
			}
			return ep.asError()
		case 0x01:
			amd := &authMoreData{}
			if err := amd.decode(r); err != nil {
				return err
			}
			switch plugin {
			case "caching_sha2_password":
				switch len(amd.pluginData) {
				case 0:
					break AuthDone
				case 1:
					switch amd.pluginData[0] {
					case 3: // fast auth success
						if _, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities); err != nil {
							return err
						}
						break AuthDone
					case 4: // full authentication required
						switch c.rw.(type) {
						case *tls.Conn, *net.UnixConn:
							authResponse = append([]byte(password), 0)
						default:
							pubKey, ok := c.pubKeys.Get(c.addr)
							if !ok {
								if err := c.write(requestPublicKey{}); err != nil {
									return err
								}
								amd2 := &authMoreData{}
								if err := amd2.decode(newReader(c.rw, &c.seq)); err != nil {
									return err
								}
								if pubKey, err = decodePEM(amd2.pluginData); err != nil {
									return err
								}
								c.pubKeys.Put(c.addr, pubKey)
							}
							if authResponse, err = encryptPasswordPubKey([]byte(password), authPluginData, pubKey); err != nil {
								return err
							}
						}
						if err := c.write(authSwitchResponse{authResponse}); err != nil {
							return err
						}
						if _, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities); err != nil {
							return err
						}
						break AuthDone
					}
				default:
					return ErrMalformedPacket
				}
			case "sha256_password":
				if len(amd.pluginData) == 0 {
					break AuthDone
				}
				pubKey, err := decodePEM(amd.pluginData)
				if err != nil {
					return err
				}
				c.pubKeys.Put(c.addr, pubKey)
				if authResponse, err = encryptPasswordPubKey([]byte(password), authPluginData, pubKey); err != nil {
					return err
				}
				if err := c.write(authSwitchResponse{authResponse}); err != nil {
					return err
				}
				if _, err := readOKOrErr(newReader(c.rw, &c.seq), c.capabilities); err != nil {
					return err
				}
				break AuthDone
			default:
				break AuthDone
			}
		case 0xfe:
			if numAuthSwitches != 0 {
				return newProtocolError("auth switch requested more than once")
			}
			numAuthSwitches++
			asr := &authSwitchRequest{}
			if err := asr.decode(r); err != nil {
				return err
			}
			plugin = asr.pluginName
			authPluginData = asr.pluginData
			if authResponse, err = c.encryptPassword(plugin, []byte(password), asr.pluginData); err != nil {
				return err
			}
			if err := c.write(authSwitchResponse{authResponse}); err != nil {
				return err
			}
		default:
			return newProtocolError("unexpected byte 0x%02x during authentication", marker)
		}
	}
	return nil
}

func (c *Conn) encryptPassword(plugin string, password, scramble []byte) ([]byte, error) {
	switch plugin {
	case "sha256_password":
		if len(password) == 0 {
			return []byte{0}, nil
		}
		switch c.rw.(type) {
		case *tls.Conn:
			return append(password, 0), nil
		default:
			pubKey, ok := c.pubKeys.Get(c.addr)
			if !ok {
				return []byte{1}, nil
			}
			return encryptPasswordPubKey(password, scramble, pubKey)
		}
	case "caching_sha2_password":
		if len(password) == 0 {
			return nil, nil
		}
		// SHA256(password) XOR SHA256(SHA256(SHA256(password)) || scramble)
		hash := sha256.New()
		sum := func(b []byte) []byte {
			hash.Reset()
			hash.Write(b)
			return hash.Sum(nil)
		}
		x := sum(password)
		y := sum(append(sum(x), scramble[:20]...))
		for i, b := range y {
			x[i] ^= b
		}
		return x, nil
	case "mysql_native_password":
		return mysqlNativePasswordHash(password, scramble), nil
	case "mysql_clear_password":
		return append(password, 0), nil
	}
	return nil, newProtocolError("unsupported auth plugin %q", plugin)
}

// mysqlNativePasswordHash computes SHA1(password) XOR
// SHA1(scramble || SHA1(SHA1(password))).
//
// https://dev.mysql.com/doc/internals/en/secure-password-authentication.html
func mysqlNativePasswordHash(password, scramble []byte) []byte {
	if len(password) == 0 {
		return nil
	}
	hash := sha1.New()
	sum := func(b []byte) []byte {
		hash.Reset()
		hash.Write(b)
		return hash.Sum(nil)
	}
	x := sum(password)
	y := sum(append(append([]byte{}, scramble[:20]...), sum(sum(password))...))
	for i, b := range y {
		x[i] ^= b
	}
	return x
}

func decodePEM(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, newProtocolError("no PEM data found in server response")
	}
	pkix, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pkix.(*rsa.PublicKey)
	if !ok {
		return nil, newProtocolError("server public key is not RSA")
	}
	return pub, nil
}

func encryptPasswordPubKey(password, seed []byte, pub *rsa.PublicKey) ([]byte, error) {
	seed = seed[:20]
	plain := make([]byte, len(password)+1)
	copy(plain, password)
	for i := range plain {
		plain[i] ^= seed[i%len(seed)]
	}
	return rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, plain, nil)
}

// authMoreData carries extra plugin-specific auth data beyond the initial
// challenge (e.g. caching_sha2_password's fast/full-auth marker).
//
// https://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::AuthMoreData
type authMoreData struct {
	pluginData []byte
}

func (e *authMoreData) decode(r *reader) error {
	status := r.int1()
	if r.err != nil {
		return r.err
	}
	if status != 0x01 {
		return newProtocolError("authMoreData: unexpected status 0x%02x", status)
	}
	e.pluginData = r.bytesEOF()
	return r.err
}

// authSwitchRequest asks the client to re-authenticate using a different
// plugin than the one offered in the initial handshake.
//
// https://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::AuthSwitchRequest
type authSwitchRequest struct {
	pluginName string
	pluginData []byte
}

func (e *authSwitchRequest) decode(r *reader) error {
	status := r.int1()
	if r.err != nil {
		return r.err
	}
	if status != 0xfe {
		return newProtocolError("authSwitchRequest: unexpected status 0x%02x", status)
	}
	e.pluginName = r.stringNull()
	e.pluginData = r.bytesEOF()
	return r.err
}

type authSwitchResponse struct {
	authResponse []byte
}

func (e authSwitchResponse) encode(w *writer) error {
	w.Write(e.authResponse)
	return w.err
}

type requestPublicKey struct{}

func (e requestPublicKey) encode(w *writer) error {
	return w.int1(2)
}
