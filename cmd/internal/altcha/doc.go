// Package altcha implements the ALTCHA proof-of-work protocol and the session
// credential that follows a successful verification.
//
// The protocol runs in two phases:
//
//	IssueChallenge -> (client brute-forces) -> Verify -> IssueToken
//	                       (client reuses cookie) -> CheckToken
//
// Nothing is stored server-side. A puzzle carries an HMAC tag over
// challenge||salt and is self-verifying: any number whose SHA-256 under the
// same salt equals the challenge exactly is accepted. A session credential is
// base64(ip|domain|expires) ":" hex(tag) and is bound to the requester.
//
// Puzzle tags and session tags use HKDF-derived sub-keys of one master secret,
// so one can never be presented as the other.
//
// HTTP transport lives in the api subpackage.
package altcha
