// Package objectstore abstracts the S3-compatible storage the pipeline
// fetches sources from and publishes packages to.
package objectstore
