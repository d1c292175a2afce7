// Package wsprobe checks WebSocket endpoints.
//
// Client creation performs the handshake. The probe optionally sends one
// text message and reads one reply; when "expect" is set the reply must
// contain it.
package wsprobe
