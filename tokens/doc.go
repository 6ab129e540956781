// Package tokens issues and decodes installation tokens and generates
// install hashes.
//
// An installation token is an HS256 JWT carrying the appId and entityId
// claims as decimal strings plus iat and exp. Codec.VerifyAndDecode is the
// only call that may gate a privileged action; DecodeUnchecked exists for
// local inspection tooling.
package tokens
