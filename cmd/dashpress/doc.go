// Command dashpress processes storage trigger events into published DASH
// packages and provides operational utilities (job history, scratch cleanup,
// configuration management).
package main
