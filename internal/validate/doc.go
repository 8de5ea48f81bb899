// Package validate runs the fixed rule pipeline against a collected
// configuration and its resolution context. Rules are pure, accumulate every
// applicable finding and never short-circuit; only hard configuration errors
// abort the analysis.
package validate
