package kerberos

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/pkg/metrics"
)

// Keytab store errors.
var (
	// ErrKeytabPathNotConfigured is returned when no keytab path was resolved
	// from configuration or environment.
	ErrKeytabPathNotConfigured = errors.New("kerberos: keytab path not configured")

	// ErrKeytabUnavailable wraps any failure to read or parse the keytab.
	ErrKeytabUnavailable = errors.New("kerberos: keytab unavailable")
)

// KeytabStore owns the service's long-term key material.
//
// The keytab is read and parsed exactly once, by the first caller of Get.
// Concurrent first callers block until that load finishes and then observe
// the same *keytab.Keytab. The result, including a failure, is kept for the
// lifetime of the store: a missing or corrupt keytab makes every later Get
// fail with the same error without touching the file again. Rotating the
// keytab requires a restart.
//
// Thread Safety: All methods are safe for concurrent use. The returned keytab
// must be treated as read-only.
type KeytabStore struct {
	path     string
	readFile func(string) ([]byte, error)
	metrics  *metrics.AuthMetrics

	mu   sync.Mutex
	done atomic.Bool
	kt   *keytab.Keytab
	err  error
}

// KeytabStoreOption configures a KeytabStore.
type KeytabStoreOption func(*KeytabStore)

// WithReadFile replaces the function used to read the keytab file.
func WithReadFile(fn func(string) ([]byte, error)) KeytabStoreOption {
	return func(s *KeytabStore) {
		s.readFile = fn
	}
}

// WithMetrics records the keytab load on m.
func WithMetrics(m *metrics.AuthMetrics) KeytabStoreOption {
	return func(s *KeytabStore) {
		s.metrics = m
	}
}

// NewKeytabStore creates a store for the keytab at path. Nothing is read
// until the first call to Get.
func NewKeytabStore(path string, opts ...KeytabStoreOption) *KeytabStore {
	s := &KeytabStore{
		path:     path,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the keytab path the store was created with.
func (s *KeytabStore) Path() string {
	return s.path
}

// Get returns the shared keytab, loading it on first use.
func (s *KeytabStore) Get() (*keytab.Keytab, error) {
	if s.done.Load() {
		return s.kt, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done.Load() {
		return s.kt, s.err
	}

	s.kt, s.err = s.Load()
	s.done.Store(true)

	if s.err != nil {
		s.metrics.RecordKeytabLoad(false, 0)
		logger.Error("Keytab load failed, Negotiate authentication disabled",
			logger.KeyKeytabPath, s.path,
			logger.Err(s.err),
		)
	} else {
		s.metrics.RecordKeytabLoad(true, len(s.kt.Entries))
		logger.Info("Keytab loaded",
			logger.KeyKeytabPath, s.path,
			logger.KeyEntries, len(s.kt.Entries),
		)
	}
	return s.kt, s.err
}

// Load reads and parses the keytab file without touching the cached result.
// Callers that only need the shared material should use Get.
func (s *KeytabStore) Load() (*keytab.Keytab, error) {
	if s.path == "" {
		return nil, ErrKeytabPathNotConfigured
	}

	data, err := s.readFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrKeytabUnavailable, s.path, err)
	}

	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrKeytabUnavailable, s.path, err)
	}
	if len(kt.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s contains no keys", ErrKeytabUnavailable, s.path)
	}

	return kt, nil
}

// Loaded reports whether a load has completed successfully.
func (s *KeytabStore) Loaded() bool {
	return s.done.Load() && s.err == nil
}

// KeytabEntry describes one key in a keytab. Key bytes are never exposed.
type KeytabEntry struct {
	Principal string    `json:"principal" yaml:"principal"`
	Realm     string    `json:"realm" yaml:"realm"`
	KVNO      uint32    `json:"kvno" yaml:"kvno"`
	EncType   int32     `json:"etype" yaml:"etype"`
	EncName   string    `json:"etype_name" yaml:"etype_name"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Entries returns a description of every key in the shared keytab, loading it
// if necessary.
func (s *KeytabStore) Entries() ([]KeytabEntry, error) {
	kt, err := s.Get()
	if err != nil {
		return nil, err
	}
	return DescribeKeytab(kt), nil
}

// DescribeKeytab lists the entries of kt sorted by principal, then KVNO
// descending, then encryption type.
func DescribeKeytab(kt *keytab.Keytab) []KeytabEntry {
	if kt == nil {
		return nil
	}
	out := make([]KeytabEntry, 0, len(kt.Entries))
	for _, e := range kt.Entries {
		out = append(out, KeytabEntry{
			Principal: strings.Join(e.Principal.Components, "/"),
			Realm:     e.Principal.Realm,
			KVNO:      e.KVNO,
			EncType:   e.Key.KeyType,
			EncName:   EncTypeName(e.Key.KeyType),
			Timestamp: e.Timestamp,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Principal != out[j].Principal {
			return out[i].Principal < out[j].Principal
		}
		if out[i].KVNO != out[j].KVNO {
			return out[i].KVNO > out[j].KVNO
		}
		return out[i].EncType < out[j].EncType
	})
	return out
}

// EncTypeName returns the RFC 3961 name of an encryption type.
func EncTypeName(etype int32) string {
	switch etype {
	case etypeID.AES128_CTS_HMAC_SHA1_96:
		return "aes128-cts-hmac-sha1-96"
	case etypeID.AES256_CTS_HMAC_SHA1_96:
		return "aes256-cts-hmac-sha1-96"
	case etypeID.AES128_CTS_HMAC_SHA256_128:
		return "aes128-cts-hmac-sha256-128"
	case etypeID.AES256_CTS_HMAC_SHA384_192:
		return "aes256-cts-hmac-sha384-192"
	case etypeID.RC4_HMAC:
		return "rc4-hmac"
	case etypeID.DES3_CBC_SHA1_KD:
		return "des3-cbc-sha1-kd"
	default:
		return fmt.Sprintf("etype-%d", etype)
	}
}

// ResolveKeytabPath resolves the keytab path with environment variable override.
//
// Resolution order (highest priority first):
//  1. KERBGATE_KERBEROS_KEYTAB env var
//  2. configPath from configuration file
//  3. KRB5_KTNAME env var, with an optional "FILE:" prefix stripped
func ResolveKeytabPath(configPath string) string {
	if envPath := os.Getenv("KERBGATE_KERBEROS_KEYTAB"); envPath != "" {
		return envPath
	}
	if configPath != "" {
		return configPath
	}
	if ktName := os.Getenv("KRB5_KTNAME"); ktName != "" {
		return strings.TrimPrefix(ktName, "FILE:")
	}
	return ""
}

// ResolveServicePrincipal resolves the service principal with environment
// variable override.
//
// Resolution order (highest priority first):
//  1. KERBGATE_KERBEROS_PRINCIPAL env var
//  2. configPrincipal from configuration file
func ResolveServicePrincipal(configPrincipal string) string {
	if envSPN := os.Getenv("KERBGATE_KERBEROS_PRINCIPAL"); envSPN != "" {
		return envSPN
	}
	return configPrincipal
}
