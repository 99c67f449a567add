// Package rdf provides a compact RDF term model and streaming statement writers.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// It focuses on incremental output with a small surface area:
//   - Write: NewWriter() returns a push-style Writer framed by Start and End.
//   - Negotiate: Negotiate() picks a Format from a parameter or an Accept header.
//   - Decode: NewNTriplesDecoder() returns a pull-style N-Triples decoder.
//
// Supported output formats: Turtle (default), N-Triples, TriG, RDF/XML, JSON-LD.
// JSON-LD is a document-level format and is produced when End is called; every
// other format is written statement by statement.
//
// Errors that occur after Start can be reported inside the document with
// Comment, which keeps the output well formed:
//
//	w, err := rdf.NewWriter(out, rdf.FormatTurtle)
//	if err != nil {
//	    // handle error
//	}
//	_ = w.HandleNamespace("ex", "http://example.org/")
//	_ = w.Start()
//	if err := w.Write(rdf.NewTriple(s, p, o)); err != nil {
//	    _ = w.Comment(err.Error())
//	}
//	_ = w.End()
package rdf
