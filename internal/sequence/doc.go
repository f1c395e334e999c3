// Package sequence keeps the ordered, id-unique list of clips a composition
// will combine.
package sequence
