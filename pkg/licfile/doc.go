// Package licfile defines the canonical signed-payload encoding, the
// portable license file format, and offline verification helpers.
//
// The canonical payload is a fixed, versioned binary encoding of a
// license's semantic fields. Both the issuing service and embedded
// verifiers build the exact same bytes from the same fields, so signature
// verification never drifts with formatting or locale changes.
//
// A license file is a deterministic text artifact carrying the license
// fields and the signature in base64. Re-parsing a file reproduces the
// byte-identical payload that was originally signed, which is what makes
// offline verification possible with nothing but the signer's public key.
package licfile
