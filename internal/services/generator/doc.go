// Package generator is the HTTP client for the external reaction-variant
// generator. Each call asks for a single variant; fan-out and retries belong
// to the generation package.
package generator
