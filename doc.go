// Package hostcheck decides whether an X.509 certificate is authorized to
// speak for a DNS hostname, following the matching rules of RFC 2818 (HTTPS).
//
// It answers exactly one question: given a certificate that has already been
// validated upstream (chain of trust, expiry, revocation), may it be used for
// a connection to this hostname? Subject alternative names of type dNSName
// are checked first; the subject common name is consulted only when the
// certificate carries no dNSName entries at all.
//
// Comparison is byte-for-byte and therefore case-sensitive, which deviates
// from the case-insensitive DNS convention. The behavior is kept deliberately
// since relaxing it changes which certificates are accepted; normalize case
// before calling if you need the looser semantics.
//
// Internationalized domain names and IP address literals are not handled.
package hostcheck
