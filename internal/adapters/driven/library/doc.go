// Package library is a local document library and the viewer that reads it.
//
// A library is a directory of UTF-8 text documents (.txt, .md). Pages are
// separated by form feed characters. A document's id is its file name
// without the extension.
//
// Viewer implements driven.Viewer over a Library and becomes ready
// asynchronously after a document is opened, like a real rendering viewer.
// Watch reports document edits so cached connections can be invalidated.
package library
