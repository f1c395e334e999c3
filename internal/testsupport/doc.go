// Package testsupport holds shared test fixtures: temp-dir configs, an
// opened job store, and a fake of every external service.
package testsupport
