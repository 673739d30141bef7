package hostcheck

import (
	"crypto/x509"
	"errors"
	"strings"
)

// Verify reports whether a parsed certificate is authorized to act for
// hostname. The certificate is assumed to have been validated upstream;
// only the identity match is decided here.
func Verify(cert *x509.Certificate, hostname string) bool {
	if cert == nil || !usableHostname(hostname) {
		return false
	}
	return VerifyNames(newCertSource(cert), hostname)
}

// VerifyDER is Verify for a DER-encoded certificate. The subject alternative
// names and the subject common name are read straight out of the encoding;
// the rest of the certificate is not interpreted. A certificate that does
// not decode is never authorized.
func VerifyDER(der []byte, hostname string) bool {
	if len(der) == 0 || !usableHostname(hostname) {
		return false
	}

	src, err := parseCertificate(der)
	if err != nil {
		logger.WithError(err).Debug("hostcheck: rejecting certificate that does not decode")
		return false
	}

	return VerifyNames(src, hostname)
}

// VerifyNames runs the RFC 2818 verification procedure over any NameSource:
// dNSName alternative names are tried in order, first match wins, and the
// common name is consulted only when the certificate carries no dNSName
// entries at all. A certificate that declares dNSName entries opts out of
// the common name fallback entirely, even when none of them match.
//
// Every failure converges to false; this function never fails open.
func VerifyNames(src NameSource, hostname string) bool {
	foundDNS := false

	for i := 0; ; i++ {
		name, err := src.AltName(i)
		if errors.Is(err, ErrNameTooLong) {
			// An oversized entry can never match, but an oversized dNSName
			// still counts as one being present.
			if name.Kind == KindDNS {
				foundDNS = true
			}
			continue
		}
		if err != nil {
			// End of the list, or the extension went bad partway through.
			// Either way there is nothing further to enumerate; entries
			// already seen keep their effect.
			break
		}

		if name.Kind != KindDNS {
			continue
		}
		foundDNS = true
		if Matches(name.Value, hostname) {
			return true
		}
	}

	if foundDNS {
		return false
	}

	cn, err := src.CommonName()
	if err != nil {
		// An unnamed certificate can never match.
		return false
	}

	return Matches(cn, hostname)
}

// usableHostname rejects hostnames the caller should never hand us: empty
// strings and strings with embedded NUL bytes.
func usableHostname(hostname string) bool {
	return hostname != "" && strings.IndexByte(hostname, 0) < 0
}
