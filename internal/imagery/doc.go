// Package imagery produces the images shown each round.
//
// Provider hides the two sources behind one call: fakes come from an Oracle
// (the HTTP model server or the built-in procedural generator), reals are picked
// from a DirCorpus and run through the Degrader so both kinds share the same
// low-fidelity look. Every image is encoded as JPEG and registered with the
// artifact store together with its label.
package imagery
