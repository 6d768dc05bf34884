/*
Package session serializes access to wizard sessions.

A wizard is conceptually single-threaded: every edit, step move and submit result is
applied one at a time. Over HTTP the same session can receive concurrent requests (double
clicks, several tabs), so the Manager holds a per-session mutex around every
read-modify-write, optionally backed by a distributed lock when several replicas share a
Redis store.
*/
package session
