// Package cleanlog persists cleaning history and status transitions to
// SQLite.
//
// The recorder subscribes to the clean-log and status emitters and writes
// through the repository; the API serves history from the same tables, so
// past runs survive restarts even though the cloud only keeps a window.
package cleanlog
