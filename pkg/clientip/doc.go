// Package clientip resolves the address of the client that sent a request.
//
// By default only the TCP peer address (http.Request.RemoteAddr) is used.
// Headers such as X-Forwarded-For, X-Real-IP or CF-Connecting-IP are set by
// whoever sends the request, so they are read only when the deployment sits
// behind a proxy that overwrites them, and only the headers named when the
// Resolver is built:
//
//	ips := clientip.New("CF-Connecting-IP", "X-Forwarded-For")
//	r.Use(ips.Middleware)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    ip := clientip.FromContext(r.Context())
//	}
//
// Trusted headers are tried in order. A comma-separated header yields its
// left-most entry that parses as an address. When no header produces one,
// RemoteAddr is used, with or without a port.
//
// Addresses are normalized through net/netip: IPv6 zones are dropped and
// IPv4-mapped IPv6 addresses are unmapped, so one client always produces the
// same string. IP returns "" when nothing parses.
package clientip
