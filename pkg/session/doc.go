/*
Package session coordinates access to persisted session records.

A Manager wraps a ports.SessionStore with per-session locks, so concurrent
saves and deletes of one session id are serialized within a process, and
optionally across replicas through a ports.DistributedLocker.
*/
package session
