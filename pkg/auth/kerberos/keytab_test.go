package kerberos

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/marmos91/kerbgate/pkg/auth/kerberos/krbtest"
	"github.com/marmos91/kerbgate/pkg/metrics"
)

// ============================================================================
// ResolveKeytabPath tests
// ============================================================================

func TestResolveKeytabPath_EnvVarOverride(t *testing.T) {
	t.Setenv("KERBGATE_KERBEROS_KEYTAB", "/env/override/keytab")

	result := ResolveKeytabPath("/config/path/keytab")
	if result != "/env/override/keytab" {
		t.Fatalf("expected /env/override/keytab, got %s", result)
	}
}

func TestResolveKeytabPath_FallbackToConfig(t *testing.T) {
	t.Setenv("KERBGATE_KERBEROS_KEYTAB", "")
	t.Setenv("KRB5_KTNAME", "FILE:/etc/other.keytab")

	result := ResolveKeytabPath("/config/path/keytab")
	if result != "/config/path/keytab" {
		t.Fatalf("expected /config/path/keytab, got %s", result)
	}
}

func TestResolveKeytabPath_KRB5KTName(t *testing.T) {
	t.Setenv("KERBGATE_KERBEROS_KEYTAB", "")
	t.Setenv("KRB5_KTNAME", "FILE:/etc/http.keytab")

	result := ResolveKeytabPath("")
	if result != "/etc/http.keytab" {
		t.Fatalf("expected /etc/http.keytab, got %s", result)
	}
}

func TestResolveKeytabPath_EmptyAll(t *testing.T) {
	t.Setenv("KERBGATE_KERBEROS_KEYTAB", "")
	t.Setenv("KRB5_KTNAME", "")

	if result := ResolveKeytabPath(""); result != "" {
		t.Fatalf("expected empty string, got %s", result)
	}
}

func TestResolveServicePrincipal(t *testing.T) {
	t.Setenv("KERBGATE_KERBEROS_PRINCIPAL", "")
	if got := ResolveServicePrincipal("HTTP/config.example.com"); got != "HTTP/config.example.com" {
		t.Fatalf("expected config principal, got %s", got)
	}

	t.Setenv("KERBGATE_KERBEROS_PRINCIPAL", "HTTP/env.example.com")
	if got := ResolveServicePrincipal("HTTP/config.example.com"); got != "HTTP/env.example.com" {
		t.Fatalf("expected env principal, got %s", got)
	}
}

// ============================================================================
// KeytabStore tests
// ============================================================================

// countingReader serves data and counts how often it is asked to.
type countingReader struct {
	data  []byte
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (c *countingReader) ReadFile(string) ([]byte, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.data, c.err
}

func marshalKeytab(t *testing.T, kt *keytab.Keytab) []byte {
	t.Helper()
	data, err := kt.Marshal()
	if err != nil {
		t.Fatalf("marshal test keytab: %v", err)
	}
	return data
}

func TestKeytabStore_LoadsFromFile(t *testing.T) {
	path := krbtest.WriteKeytab(t, t.TempDir(), krbtest.NewKeytab(t, krbtest.Password))

	store := NewKeytabStore(path)
	if store.Loaded() {
		t.Fatal("store should not load before first use")
	}

	kt, err := store.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(kt.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(kt.Entries))
	}
	if !store.Loaded() {
		t.Fatal("store should report loaded")
	}
	if store.Path() != path {
		t.Fatalf("Path() = %s, want %s", store.Path(), path)
	}
}

func TestKeytabStore_ConcurrentFirstUseReadsOnce(t *testing.T) {
	reader := &countingReader{
		data:  marshalKeytab(t, krbtest.NewKeytab(t, krbtest.Password)),
		delay: 20 * time.Millisecond,
	}
	store := NewKeytabStore("/test/http.keytab", WithReadFile(reader.ReadFile))

	const n = 32
	results := make([]*keytab.Keytab, n)
	errs := make([]error, n)

	var start, wg sync.WaitGroup
	start.Add(1)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			results[i], errs[i] = store.Get()
		}(i)
	}
	start.Done()
	wg.Wait()

	if got := reader.calls.Load(); got != 1 {
		t.Fatalf("keytab read %d times, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different keytab instance", i)
		}
	}
}

func TestKeytabStore_MissingFileIsSticky(t *testing.T) {
	reader := &countingReader{err: os.ErrNotExist}
	store := NewKeytabStore("/nonexistent/http.keytab", WithReadFile(reader.ReadFile))

	for i := 0; i < 3; i++ {
		kt, err := store.Get()
		if kt != nil {
			t.Fatal("expected nil keytab")
		}
		if !errors.Is(err, ErrKeytabUnavailable) {
			t.Fatalf("expected ErrKeytabUnavailable, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected cause os.ErrNotExist, got %v", err)
		}
	}

	if got := reader.calls.Load(); got != 1 {
		t.Fatalf("failed load retried: %d reads, want 1", got)
	}
	if store.Loaded() {
		t.Fatal("failed store must not report loaded")
	}
}

func TestKeytabStore_EmptyPath(t *testing.T) {
	reader := &countingReader{}
	store := NewKeytabStore("", WithReadFile(reader.ReadFile))

	if _, err := store.Get(); !errors.Is(err, ErrKeytabPathNotConfigured) {
		t.Fatalf("expected ErrKeytabPathNotConfigured, got %v", err)
	}
	if reader.calls.Load() != 0 {
		t.Fatal("reader must not be called without a path")
	}
}

func TestKeytabStore_InvalidData(t *testing.T) {
	reader := &countingReader{data: []byte("not a keytab")}
	store := NewKeytabStore("/test/bad.keytab", WithReadFile(reader.ReadFile))

	if _, err := store.Get(); !errors.Is(err, ErrKeytabUnavailable) {
		t.Fatalf("expected ErrKeytabUnavailable for invalid data, got %v", err)
	}
}

func TestKeytabStore_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAuthMetrics(reg)

	ok := NewKeytabStore("/ok", WithMetrics(m), WithReadFile((&countingReader{
		data: marshalKeytab(t, krbtest.NewKeytab(t, krbtest.Password)),
	}).ReadFile))
	if _, err := ok.Get(); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	bad := NewKeytabStore("/bad", WithMetrics(m), WithReadFile((&countingReader{err: os.ErrPermission}).ReadFile))
	_, _ = bad.Get()

	if got := testutil.ToFloat64(m.KeytabLoads.WithLabelValues("success")); got != 1 {
		t.Fatalf("success loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.KeytabLoads.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failed loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.KeytabEntries); got != 1 {
		t.Fatalf("keytab entries = %v, want 1", got)
	}
}

func TestKeytabStore_Entries(t *testing.T) {
	kt := krbtest.NewKeytab(t, krbtest.Password)
	if err := kt.AddEntry(krbtest.Service, krbtest.Realm, "rotated-password", time.Now(), 2, krbtest.EType); err != nil {
		t.Fatalf("add keytab entry: %v", err)
	}
	store := NewKeytabStore("/test", WithReadFile((&countingReader{data: marshalKeytab(t, kt)}).ReadFile))

	entries, err := store.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].KVNO != 2 || entries[1].KVNO != 1 {
		t.Fatalf("entries not sorted by KVNO descending: %+v", entries)
	}
	if entries[0].Principal != krbtest.Service || entries[0].Realm != krbtest.Realm {
		t.Fatalf("unexpected principal %s@%s", entries[0].Principal, entries[0].Realm)
	}
	if entries[0].EncName != "aes256-cts-hmac-sha1-96" {
		t.Fatalf("unexpected etype name %s", entries[0].EncName)
	}
}

func TestEncTypeNameUnknown(t *testing.T) {
	if got := EncTypeName(99); got != "etype-99" {
		t.Fatalf("EncTypeName(99) = %s", got)
	}
}
