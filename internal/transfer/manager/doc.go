// Package manager dispatches single-object and tree copies between the local
// filesystem and the object store.
//
// The direction of every copy is chosen by an exhaustive switch over the
// (source kind, destination kind) pair. Local uploads at or above the
// multipart threshold are handed to the multipart uploader; everything else
// moves in a single request or stream.
package manager
