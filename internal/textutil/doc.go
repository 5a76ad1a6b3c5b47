// Package textutil provides filename sanitization for user-supplied titles.
package textutil
