// Package mmfile memory-maps resource files for read-only parsing.
package mmfile
