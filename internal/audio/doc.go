// Package audio splits raw audio buffers into fixed-size segments and
// encodes them for transport to an inference backend. Splitting is purely
// byte based and does not look at the container or codec.
package audio
