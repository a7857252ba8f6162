// Package version holds the version of vnicdb.
package version

// Version contains the vnicdb version number.
var Version = "0.4.0"
