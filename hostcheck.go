package hostcheck

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger()

// MaxNameLen is the longest candidate name accepted from a certificate.
// DNS names cannot exceed 255 octets (RFC 1035), so anything longer is the
// peer misbehaving. Oversized names are rejected with ErrNameTooLong, never
// truncated.
const MaxNameLen = 255

// maxAltNames bounds how many subject alternative names the raw-DER binding
// will enumerate from a single certificate, so a hostile peer can't make a
// verification call arbitrarily expensive.
const maxAltNames = 1024

// AltNameKind is the declared type of a subject alternative name entry.
// The values follow the GeneralName CHOICE tags of RFC 5280 section 4.2.1.6.
type AltNameKind int

const (
	KindOtherName AltNameKind = iota
	KindEmail
	KindDNS
	KindX400Address
	KindDirectoryName
	KindEDIPartyName
	KindURI
	KindIP
	KindRegisteredID
)

// AltName is a single subject alternative name entry. Value is empty for
// kinds the library does not decode (they are skipped during verification
// anyway).
type AltName struct {
	Kind  AltNameKind
	Value string
}

var (
	// ErrNoMoreNames signals normal exhaustion of a certificate's
	// alternative name list. It is not a failure.
	ErrNoMoreNames = errors.New("hostcheck: no more alternative names")

	// ErrNameTooLong signals an entry longer than MaxNameLen. The entry's
	// kind is still reported alongside the error.
	ErrNameTooLong = errors.New("hostcheck: name exceeds maximum length")

	// ErrNoCommonName signals a certificate subject without a common name.
	ErrNoCommonName = errors.New("hostcheck: certificate has no common name")
)

// NameSource yields the identity names bound into one certificate. The two
// bindings in this package cover parsed certificates and raw DER; callers
// with their own certificate plumbing can provide a third and pass it to
// VerifyNames.
type NameSource interface {
	// AltName returns the subject alternative name at index i, in
	// certificate order. It returns ErrNoMoreNames once i is past the last
	// entry, and ErrNameTooLong for an oversized entry (with the entry's
	// kind still set on the returned name). Any other error means the list
	// could not be enumerated past the entries already returned.
	AltName(i int) (AltName, error)

	// CommonName returns the subject common name, ErrNoCommonName if the
	// subject does not carry one, or ErrNameTooLong if it is oversized.
	CommonName() (string, error)
}
