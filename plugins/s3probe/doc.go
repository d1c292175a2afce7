// Package s3probe checks S3-compatible object storage.
//
// The strategy confirms the configured bucket exists. The "s3.object"
// collector stats a single object and reports its size and age.
package s3probe
