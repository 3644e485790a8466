// Package textutil provides filename sanitization and Unicode-aware text
// matching for RÚV titles, which routinely carry Icelandic letters in both
// composed and decomposed form.
package textutil
