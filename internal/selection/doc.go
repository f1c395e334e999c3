// Package selection implements the hook-then-demo choice a user makes over
// a set of generated variants.
//
//	AwaitingHook --SelectHook--> AwaitingDemo --SelectDemo--> Completed
//	      ^                           |
//	      +----------Back-------------+
//
// Cancel is valid from either waiting phase. Rejected operations leave the
// session unchanged.
package selection
