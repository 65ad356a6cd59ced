// Package testutil builds in-memory databases for tests.
//
// Key components:
//   - Builder: declarative setup of libraries, IDs, collections and scenes
//   - Rig: the armature and deformed body fixture most override tests use
//   - Assertions: user count and dangling pointer checks over a whole Main
//
// Usage guidelines:
//   - Build the database inline in each test, never share one between tests
//   - Call Builder.Build once every edge is in place: it recomputes users
//   - Linked IDs are created directly, as if a library had been read
package testutil
