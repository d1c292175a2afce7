// Package plugins registers the built-in probe strategies and collectors.
package plugins
