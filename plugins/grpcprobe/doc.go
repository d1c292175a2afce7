// Package grpcprobe checks services through the standard gRPC health
// protocol.
//
// The strategy dials the target and calls grpc.health.v1.Health/Check for
// the configured service name. Anything other than SERVING is unhealthy.
// The "grpc.check" collector checks further service names over the same
// connection.
package grpcprobe
