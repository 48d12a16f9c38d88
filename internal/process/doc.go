// Package process manages the process group of external converters so a
// cancelled conversion leaves no orphaned children behind.
package process
