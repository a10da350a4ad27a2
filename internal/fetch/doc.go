// Package fetch stages the triggering source object into scratch space,
// probing its declared size against the scratch budget before any transfer.
package fetch
