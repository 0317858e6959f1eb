// Package auth implements the session and authorization engine.
//
// A visitor authenticates against a share with its password; on success the
// engine issues a random token bound to the visitor's IP, persists it in the
// session store, and binds it into the caller's client-carried scope. Every
// subsequent access revalidates the scope-bound token against the store.
// Session lifetime is a sliding window from issuance capped by the share's
// absolute expiry.
package auth
