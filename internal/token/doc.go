// Package token is the token identity service: it computes the stable id and
// kind for any token expression. Ids are stable for a given declaration and
// distinct across same-named declarations in different locations, via an
// 8-hex-digit hash of the declaring location. Property token ids are literal
// structural strings and intentionally unhashed.
package token
