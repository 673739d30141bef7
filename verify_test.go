package hostcheck

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"
)

// makeCert self-signs tmpl and returns both certificate representations.
func makeCert(t *testing.T, tmpl *x509.Certificate) (*x509.Certificate, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert, der
}

func leafTemplate(commonName string) *x509.Certificate {
	now := time.Now()
	return &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
}

func TestVerify(t *testing.T) {
	withDNS := func(commonName string, names ...string) *x509.Certificate {
		tmpl := leafTemplate(commonName)
		tmpl.DNSNames = names
		return tmpl
	}
	withEmail := func(commonName string, emails ...string) *x509.Certificate {
		tmpl := leafTemplate(commonName)
		tmpl.EmailAddresses = emails
		return tmpl
	}

	tests := []struct {
		name     string
		tmpl     *x509.Certificate
		hostname string
		want     bool
	}{
		{"san exact match", withDNS("", "foo.example.com"), "foo.example.com", true},
		{"san second entry matches", withDNS("", "a.example.com", "b.example.com"), "b.example.com", true},
		{"san wildcard match", withDNS("", "*.example.com"), "foo.example.com", true},
		{"san wildcard no apex", withDNS("", "*.example.com"), "example.com", false},
		{"san wildcard single level only", withDNS("", "*.example.com"), "foo.bar.example.com", false},
		{"san wildcard no single label", withDNS("", "*.example.com"), "localhost", false},
		{"san mismatch", withDNS("", "a.example.com", "b.example.com"), "c.example.com", false},

		// A certificate with dNSName entries opts out of the common name
		// fallback, even when the common name would match.
		{"san present suppresses common name", withDNS("c.example.com", "a.example.com", "b.example.com"), "c.example.com", false},

		// Non-DNS alternative names don't count as dNSName entries.
		{"email san falls back to common name", withEmail("mail.example.com", "admin@example.com"), "mail.example.com", true},
		{"email san with mismatched common name", withEmail("mail.example.com", "admin@example.com"), "other.example.com", false},

		{"no san matches common name", leafTemplate("www.example.com"), "www.example.com", true},
		{"no san wildcard common name", leafTemplate("*.example.com"), "foo.example.com", true},
		{"no san mismatched common name", leafTemplate("www.example.com"), "mail.example.com", false},
		{"no san no common name", leafTemplate(""), "www.example.com", false},

		{"common name is case-sensitive", leafTemplate("WWW.Example.com"), "www.example.com", false},
		{"san is case-sensitive", withDNS("", "WWW.Example.com"), "www.example.com", false},

		// An oversized dNSName can never match, but it still disables the
		// common name fallback.
		{"oversized san suppresses common name", withDNS("c.example.com", strings.Repeat("a", 300)+".example.com"), "c.example.com", false},
	}

	for _, tt := range tests {
		cert, der := makeCert(t, tt.tmpl)

		// Both certificate representations must agree.
		if got := Verify(cert, tt.hostname); got != tt.want {
			t.Errorf("%s: Verify = %v, want %v", tt.name, got, tt.want)
		}
		if got := VerifyDER(der, tt.hostname); got != tt.want {
			t.Errorf("%s: VerifyDER = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVerifyIdempotent(t *testing.T) {
	cert, der := makeCert(t, leafTemplate("www.example.com"))

	for i := 0; i < 3; i++ {
		if !Verify(cert, "www.example.com") {
			t.Fatalf("Verify changed its answer on call %d", i+1)
		}
		if !VerifyDER(der, "www.example.com") {
			t.Fatalf("VerifyDER changed its answer on call %d", i+1)
		}
	}
}

func TestVerifyRejectsBadInputs(t *testing.T) {
	cert, der := makeCert(t, leafTemplate("www.example.com"))

	if Verify(nil, "www.example.com") {
		t.Error("nil certificate should never verify")
	}
	if Verify(cert, "") {
		t.Error("empty hostname should never verify")
	}
	if Verify(cert, "www.example.com\x00evil") {
		t.Error("hostname with NUL byte should never verify")
	}
	if VerifyDER(nil, "www.example.com") {
		t.Error("empty DER should never verify")
	}
	if VerifyDER([]byte("not a certificate"), "www.example.com") {
		t.Error("garbage DER should never verify")
	}
	if VerifyDER(der, "") {
		t.Error("empty hostname should never verify")
	}
}

// stubSource drives VerifyNames directly, to pin down orchestration details
// that can't be observed through a real certificate.
type stubEntry struct {
	name AltName
	err  error
}

type stubSource struct {
	entries []stubEntry
	endErr  error // returned past the last entry instead of ErrNoMoreNames
	cn      string
	cnErr   error

	altCalls int
	cnCalls  int
}

func (s *stubSource) AltName(i int) (AltName, error) {
	s.altCalls++
	if i >= len(s.entries) {
		if s.endErr != nil {
			return AltName{}, s.endErr
		}
		return AltName{}, ErrNoMoreNames
	}
	entry := s.entries[i]
	return entry.name, entry.err
}

func (s *stubSource) CommonName() (string, error) {
	s.cnCalls++
	if s.cnErr != nil {
		return "", s.cnErr
	}
	if s.cn == "" {
		return "", ErrNoCommonName
	}
	return s.cn, nil
}

func dnsEntry(name string) stubEntry {
	return stubEntry{name: AltName{Kind: KindDNS, Value: name}}
}

func TestVerifyNamesShortCircuits(t *testing.T) {
	src := &stubSource{entries: []stubEntry{
		dnsEntry("a.example.com"),
		dnsEntry("b.example.com"),
		dnsEntry("c.example.com"),
	}}

	if !VerifyNames(src, "b.example.com") {
		t.Fatal("expected a match on the second entry")
	}
	if src.altCalls != 2 {
		t.Errorf("expected enumeration to stop at the match, got %d accesses", src.altCalls)
	}
}

func TestVerifyNamesNeverConsultsCommonNameAfterDNS(t *testing.T) {
	src := &stubSource{
		entries: []stubEntry{dnsEntry("a.example.com")},
		cn:      "b.example.com",
	}

	if VerifyNames(src, "b.example.com") {
		t.Fatal("common name must not rescue a certificate with dNSName entries")
	}
	if src.cnCalls != 0 {
		t.Errorf("common name was consulted %d times", src.cnCalls)
	}
}

func TestVerifyNamesOversizedEntries(t *testing.T) {
	// An oversized dNSName still counts as a dNSName being present.
	src := &stubSource{
		entries: []stubEntry{{name: AltName{Kind: KindDNS}, err: ErrNameTooLong}},
		cn:      "www.example.com",
	}
	if VerifyNames(src, "www.example.com") {
		t.Error("oversized dNSName should suppress the common name fallback")
	}

	// An oversized entry of another kind does not.
	src = &stubSource{
		entries: []stubEntry{{name: AltName{Kind: KindEmail}, err: ErrNameTooLong}},
		cn:      "www.example.com",
	}
	if !VerifyNames(src, "www.example.com") {
		t.Error("oversized email entry should not suppress the common name fallback")
	}
}

func TestVerifyNamesMalformedTail(t *testing.T) {
	errMalformed := errors.New("malformed entry")

	// Damage after a dNSName was seen: the certificate has still opted out
	// of the common name fallback.
	src := &stubSource{
		entries: []stubEntry{dnsEntry("a.example.com")},
		endErr:  errMalformed,
		cn:      "b.example.com",
	}
	if VerifyNames(src, "b.example.com") {
		t.Error("malformed tail must not re-enable the common name fallback")
	}

	// Damage before any entry was seen: no dNSName was found, so the common
	// name is still consulted.
	src = &stubSource{
		endErr: errMalformed,
		cn:     "b.example.com",
	}
	if !VerifyNames(src, "b.example.com") {
		t.Error("expected common name fallback when no dNSName was seen")
	}
}

func TestVerifyNamesCommonNameErrors(t *testing.T) {
	src := &stubSource{cnErr: errors.New("extraction failed")}
	if VerifyNames(src, "www.example.com") {
		t.Error("a certificate with no usable name should never verify")
	}

	src = &stubSource{} // no entries, no common name
	if VerifyNames(src, "www.example.com") {
		t.Error("an unnamed certificate should never verify")
	}
}
