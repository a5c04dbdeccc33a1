// Package dice contains site-independent helpers of the DICE cluster
// administration library.
//
// Site configuration is handled by package config, file operations across
// the storage systems of a site by package fs.
package dice

// Version of the library.
const Version = "0.3.1"
