/*
Package account implements the identity service: accounts, projects,
API keys, dashboards and notification preferences.

Credentials follow two rules that shape the whole package. An API
key's plaintext exists only in the CreateApiKey reply; storage holds
its display prefix and a SHA-256 hash, and ValidateApiKey — the
hottest RPC on the platform — resolves a presented secret with one
indexed lookup on that hash. Session access tokens are short-lived
HS256 JWTs; refresh tokens are opaque, stored hashed, and rotate on
every use.

Revoking a key invalidates exactly that key's gateway cache entry.
*/
package account
