// Package controller holds the HTTP pieces of the debug listener: an access
// logging middleware and the pprof handlers.
package controller
