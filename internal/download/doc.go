// Package download fetches remote files over HTTP into a local directory.
//
// Requests can optionally be routed through a SOCKS5 proxy. Files are
// written to a temporary name first and renamed into place, so an
// interrupted download never leaves a truncated file under the final name.
package download
