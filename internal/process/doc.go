// Package process runs external encoder pipelines.
//
// A [Chain] is one to three commands where each command's stdout feeds the
// next command's stdin through an OS pipe. Reading the chain reads the last
// command's stdout; nothing is buffered beyond the pipes themselves.
//
// Closing a chain stops every process in it. Each process receives a
// terminate signal and is killed if it has not exited after [GracePeriod].
// Temp files created for a command are removed once its process is gone.
//
// Encoder stderr is forwarded to the logger line by line so a chatty encoder
// never blocks on a full stderr pipe.
package process
