// Command hookreel generates reaction-video variants, walks the user through
// choosing a hook and a demo, and renders the composition through the
// combiner and captioner services.
//
// Jobs are recorded in a SQLite database under paths.data_dir and can be
// listed, inspected, retried, or cancelled with the jobs subcommands.
package main
