// Package catalog holds the operator-defined configurations and their
// associations with monitored systems.
//
// A Memory catalog is replaced as a whole. Replacements are validated
// against the probe registry first; a rejected snapshot leaves the
// previous one in place.
package catalog
