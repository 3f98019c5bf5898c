// Package modelcache holds the single speech-recognition model a process keeps
// in memory.
//
// At most one model size is loaded at a time. Callers borrow the loaded model
// through a Lease; switching sizes waits for outstanding leases, closes the
// old model and loads the new one. Requests for the size already loaded reuse
// it without loading again, while an explicit Reload of that size fails with
// services.ErrRedundantReload.
package modelcache
