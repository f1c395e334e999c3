// Package workflow ties one composition together: generation, the hook and
// demo selection, the clip sequence, and the pipeline job that renders it.
//
// A Composer holds all of that state explicitly. It refuses to start a
// second job while one is in flight for the same composition.
package workflow
