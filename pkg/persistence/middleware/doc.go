// Package middleware provides ports.SessionStore decorators for encryption at
// rest and PII masking.
package middleware
