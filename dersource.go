package hostcheck

import (
	encoding_asn1 "encoding/asn1"
	"errors"
	"fmt"
	"net"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidSubjectAltName = encoding_asn1.ObjectIdentifier{2, 5, 29, 17}
	oidCommonName     = encoding_asn1.ObjectIdentifier{2, 5, 4, 3}
)

// altEntry is one enumerated alternative name. err is ErrNameTooLong for
// entries that exceed MaxNameLen; the kind is still recorded so the verifier
// can account for an oversized dNSName.
type altEntry struct {
	name AltName
	err  error
}

// derSource binds a DER-encoded certificate to the NameSource contract. It
// walks just enough of the TBSCertificate to reach the subject (for the
// common name) and the subjectAltName extension; signatures, keys and the
// remaining extensions are skipped, not interpreted.
type derSource struct {
	names []altEntry
	// altErr is set when the subjectAltName extension could not be
	// enumerated past the entries already collected. It replaces
	// ErrNoMoreNames at the end of the list, so the verifier stops without
	// mistaking the damage for a clean, empty list.
	altErr error

	cn    string
	cnErr error
}

// parseCertificate extracts the subject alternative names and the subject
// common name from a DER-encoded X.509 certificate.
//
//	Certificate ::= SEQUENCE {
//	  tbsCertificate     TBSCertificate,
//	  signatureAlgorithm AlgorithmIdentifier,
//	  signatureValue     BIT STRING }
func parseCertificate(raw []byte) (*derSource, error) {
	der := cryptobyte.String(raw)

	var cert cryptobyte.String
	if !der.ReadASN1(&cert, asn1.SEQUENCE) {
		return nil, errors.New("malformed certificate")
	}
	if !der.Empty() {
		return nil, errors.New("trailing data after certificate")
	}

	var tbs cryptobyte.String
	if !cert.ReadASN1(&tbs, asn1.SEQUENCE) {
		return nil, errors.New("malformed tbsCertificate")
	}

	// version [0] EXPLICIT INTEGER DEFAULT v1
	if !tbs.SkipOptionalASN1(asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, errors.New("malformed version")
	}
	if !tbs.SkipASN1(asn1.INTEGER) {
		return nil, errors.New("malformed serial number")
	}
	if !tbs.SkipASN1(asn1.SEQUENCE) {
		return nil, errors.New("malformed signature algorithm")
	}
	if !tbs.SkipASN1(asn1.SEQUENCE) {
		return nil, errors.New("malformed issuer")
	}
	if !tbs.SkipASN1(asn1.SEQUENCE) {
		return nil, errors.New("malformed validity")
	}

	var subject cryptobyte.String
	if !tbs.ReadASN1(&subject, asn1.SEQUENCE) {
		return nil, errors.New("malformed subject")
	}

	if !tbs.SkipASN1(asn1.SEQUENCE) {
		return nil, errors.New("malformed subjectPublicKeyInfo")
	}
	// issuerUniqueID [1] IMPLICIT BIT STRING, subjectUniqueID [2] likewise
	if !tbs.SkipOptionalASN1(asn1.Tag(1).ContextSpecific()) {
		return nil, errors.New("malformed issuerUniqueID")
	}
	if !tbs.SkipOptionalASN1(asn1.Tag(2).ContextSpecific()) {
		return nil, errors.New("malformed subjectUniqueID")
	}

	var exts cryptobyte.String
	var hasExts bool
	if !tbs.ReadOptionalASN1(&exts, &hasExts, asn1.Tag(3).Constructed().ContextSpecific()) {
		return nil, errors.New("malformed extensions")
	}

	src := &derSource{}
	src.cn, src.cnErr = parseSubjectCommonName(subject)

	if hasExts {
		sanValue, found, err := findSANExtension(exts)
		if err != nil {
			return nil, err
		}
		if found {
			src.parseGeneralNames(sanValue)
		}
	}

	return src, nil
}

// findSANExtension scans the extension list for OID 2.5.29.17 and returns its
// extnValue contents.
//
//	Extension ::= SEQUENCE {
//	  extnID    OBJECT IDENTIFIER,
//	  critical  BOOLEAN DEFAULT FALSE,
//	  extnValue OCTET STRING }
func findSANExtension(exts cryptobyte.String) (cryptobyte.String, bool, error) {
	var list cryptobyte.String
	if !exts.ReadASN1(&list, asn1.SEQUENCE) {
		return nil, false, errors.New("malformed extension list")
	}

	for !list.Empty() {
		var ext cryptobyte.String
		if !list.ReadASN1(&ext, asn1.SEQUENCE) {
			return nil, false, errors.New("malformed extension")
		}
		var oid encoding_asn1.ObjectIdentifier
		if !ext.ReadASN1ObjectIdentifier(&oid) {
			return nil, false, errors.New("malformed extension OID")
		}
		if ext.PeekASN1Tag(asn1.BOOLEAN) {
			var critical bool
			if !ext.ReadASN1Boolean(&critical) {
				return nil, false, errors.New("malformed extension critical flag")
			}
		}
		var value cryptobyte.String
		if !ext.ReadASN1(&value, asn1.OCTET_STRING) {
			return nil, false, errors.New("malformed extension value")
		}
		if oid.Equal(oidSubjectAltName) {
			return value, true, nil
		}
	}

	return nil, false, nil
}

// parseGeneralNames enumerates the subjectAltName GeneralNames sequence.
// Damage partway through keeps the entries collected so far and records the
// failure, so verification fails closed instead of pretending the list was
// empty.
func (s *derSource) parseGeneralNames(der cryptobyte.String) {
	var names cryptobyte.String
	if !der.ReadASN1(&names, asn1.SEQUENCE) {
		s.altErr = errors.New("malformed subjectAltName extension")
		return
	}

	for !names.Empty() {
		if len(s.names) >= maxAltNames {
			s.altErr = fmt.Errorf("more than %d alternative names", maxAltNames)
			return
		}

		var entry cryptobyte.String
		var tag asn1.Tag
		if !names.ReadAnyASN1(&entry, &tag) {
			s.altErr = errors.New("malformed subjectAltName entry")
			return
		}
		if tag&0xc0 != 0x80 {
			// GeneralName alternatives are all context-specific.
			s.altErr = errors.New("unexpected tag class in subjectAltName")
			return
		}

		kind := AltNameKind(tag & 0x1f)
		switch kind {
		case KindDNS, KindEmail, KindURI:
			if len(entry) > MaxNameLen {
				s.names = append(s.names, altEntry{name: AltName{Kind: kind}, err: ErrNameTooLong})
				continue
			}
			s.names = append(s.names, altEntry{name: AltName{Kind: kind, Value: string(entry)}})
		case KindIP:
			s.names = append(s.names, altEntry{name: AltName{Kind: KindIP, Value: net.IP(entry).String()}})
		default:
			// Present but not decoded; the verifier skips these kinds.
			s.names = append(s.names, altEntry{name: AltName{Kind: kind}})
		}
	}
}

// parseSubjectCommonName walks the subject RDNSequence looking for
// attribute type 2.5.4.3. When the subject carries several common names the
// last one wins, matching how crypto/x509/pkix fills in pkix.Name.
func parseSubjectCommonName(rdns cryptobyte.String) (string, error) {
	var cn string
	found := false

	for !rdns.Empty() {
		var set cryptobyte.String
		if !rdns.ReadASN1(&set, asn1.SET) {
			return "", errors.New("malformed subject RDN")
		}
		for !set.Empty() {
			var atv cryptobyte.String
			if !set.ReadASN1(&atv, asn1.SEQUENCE) {
				return "", errors.New("malformed subject attribute")
			}
			var oid encoding_asn1.ObjectIdentifier
			if !atv.ReadASN1ObjectIdentifier(&oid) {
				return "", errors.New("malformed subject attribute OID")
			}
			var value cryptobyte.String
			var tag asn1.Tag
			if !atv.ReadAnyASN1(&value, &tag) {
				return "", errors.New("malformed subject attribute value")
			}
			if !oid.Equal(oidCommonName) {
				continue
			}
			switch tag {
			case asn1.UTF8String, asn1.PrintableString, asn1.IA5String, asn1.T61String:
				cn = string(value)
				found = true
			default:
				return "", fmt.Errorf("unsupported common name string type %d", tag)
			}
		}
	}

	if !found {
		return "", ErrNoCommonName
	}
	return cn, nil
}

func (s *derSource) AltName(i int) (AltName, error) {
	if i < 0 {
		return AltName{}, ErrNoMoreNames
	}
	if i >= len(s.names) {
		if s.altErr != nil {
			return AltName{}, s.altErr
		}
		return AltName{}, ErrNoMoreNames
	}
	entry := s.names[i]
	return entry.name, entry.err
}

func (s *derSource) CommonName() (string, error) {
	if s.cnErr != nil {
		return "", s.cnErr
	}
	if s.cn == "" {
		return "", ErrNoCommonName
	}
	if len(s.cn) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return s.cn, nil
}
