package hostcheck

import "crypto/x509"

// certSource binds a parsed *x509.Certificate to the NameSource contract.
// The parsed form groups alternative names by kind, so the interleaving from
// the certificate is not preserved; verification does not depend on entry
// order.
type certSource struct {
	cert  *x509.Certificate
	names []AltName
}

func newCertSource(cert *x509.Certificate) *certSource {
	return &certSource{cert: cert, names: altNamesFromCert(cert)}
}

func altNamesFromCert(cert *x509.Certificate) []AltName {
	n := len(cert.DNSNames) + len(cert.EmailAddresses) + len(cert.IPAddresses) + len(cert.URIs)
	if n == 0 {
		return nil
	}

	names := make([]AltName, 0, n)
	for _, s := range cert.DNSNames {
		names = append(names, AltName{Kind: KindDNS, Value: s})
	}
	for _, s := range cert.EmailAddresses {
		names = append(names, AltName{Kind: KindEmail, Value: s})
	}
	for _, ip := range cert.IPAddresses {
		names = append(names, AltName{Kind: KindIP, Value: ip.String()})
	}
	for _, u := range cert.URIs {
		names = append(names, AltName{Kind: KindURI, Value: u.String()})
	}
	return names
}

func (s *certSource) AltName(i int) (AltName, error) {
	if i < 0 || i >= len(s.names) {
		return AltName{}, ErrNoMoreNames
	}
	name := s.names[i]
	if len(name.Value) > MaxNameLen {
		return AltName{Kind: name.Kind}, ErrNameTooLong
	}
	return name, nil
}

func (s *certSource) CommonName() (string, error) {
	cn := s.cert.Subject.CommonName
	if cn == "" {
		return "", ErrNoCommonName
	}
	if len(cn) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return cn, nil
}
