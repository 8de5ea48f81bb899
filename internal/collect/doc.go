// Package collect builds immutable ConfigGraphs from the declaration model:
// one per configuration unit, with token identities resolved, provider kinds
// detected, duplicate pairs pre-collected and composite inheritance
// references captured. Everything downstream reads these graphs and never
// mutates them.
package collect
