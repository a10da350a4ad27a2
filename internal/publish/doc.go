// Package publish uploads packaged artifacts to the output location with
// manifest-last ordering.
package publish
