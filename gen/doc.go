// Package gen emits Go source from lowered op programs.
//
// Generate is a pure transformation: programs in, formatted source text
// out. Each op maps to one generated statement against the binstream
// Reader/Writer, with SSA values carried as uint64 bit patterns in
// local variables named after their ids. The first failing stream call
// returns immediately; generated code never attempts partial recovery.
package gen
