// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag provides diagnostic reporting for the HLSL-to-SPIR-V
// layout core.
//
// Every failure path in the core reports exactly one diagnostic with a
// severity, a stable kind tag, and a source span. Recoverable errors do
// not unwind; the reporting component returns a sentinel result so the
// surrounding pass can keep walking and surface further diagnostics.
package diag

import "fmt"

// Severity classifies how a diagnostic affects translation.
type Severity uint8

const (
	// SeverityFatal means translation of the unit cannot usefully
	// continue; the driving pass stops after draining the current
	// declaration.
	SeverityFatal Severity = iota

	// SeverityError marks invalid input; translation continues to
	// accumulate further diagnostics.
	SeverityError

	// SeverityWarning marks suspicious but acceptable input.
	SeverityWarning

	// SeverityNote attaches supplementary information to a prior
	// diagnostic.
	SeverityNote
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Kind is a stable tag categorizing a diagnostic.
type Kind uint8

const (
	// KindUnsupportedType indicates a type shape not representable in
	// the target layout model.
	KindUnsupportedType Kind = iota

	// KindUnsupportedResourceElement indicates an opaque resource
	// instantiated with an incompatible element type.
	KindUnsupportedResourceElement

	// KindLayoutOverlap indicates an explicit packing offset placed
	// before the end of a prior member.
	KindLayoutOverlap

	// KindDuplicateSemantic indicates two declarations claiming the same
	// interface semantic and direction, or colliding explicit locations.
	KindDuplicateSemantic

	// KindStructShapeMismatch indicates a counter-association assignment
	// between structurally non-isomorphic declarations.
	KindStructShapeMismatch

	// KindInternal indicates a broken invariant inside the core itself.
	KindInternal
)

// String returns the stable tag name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindUnsupportedResourceElement:
		return "UnsupportedResourceElement"
	case KindLayoutOverlap:
		return "LayoutOverlap"
	case KindDuplicateSemantic:
		return "DuplicateSemantic"
	case KindStructShapeMismatch:
		return "StructShapeMismatch"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Span identifies a source location as byte offsets.
type Span struct {
	Start uint32
	End   uint32
}

// Diagnostic is a single reported message.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Span     Span
}

// String formats the diagnostic as severity, kind, span, message.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s at [%d:%d]: %s", d.Severity, d.Kind, d.Span.Start, d.Span.End, d.Message)
}

// Sink accumulates diagnostics for a translation unit.
//
// A Sink is not safe for concurrent use; translation is single-threaded.
type Sink struct {
	diags    []Diagnostic
	numFatal int
	numError int
}

// NewSink creates an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report records a diagnostic and traces it through the package logger.
func (s *Sink) Report(d Diagnostic) {
	s.diags = append(s.diags, d)
	switch d.Severity {
	case SeverityFatal:
		s.numFatal++
	case SeverityError:
		s.numError++
	}
	logDiagnostic(d)
}

// Fatal reports a fatal diagnostic.
func (s *Sink) Fatal(kind Kind, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: SeverityFatal, Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// Error reports an error diagnostic.
func (s *Sink) Error(kind Kind, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: SeverityError, Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// Warning reports a warning diagnostic.
func (s *Sink) Warning(kind Kind, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: SeverityWarning, Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// Note reports a note diagnostic.
func (s *Sink) Note(kind Kind, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: SeverityNote, Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// Diagnostics returns all reported diagnostics in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diags
}

// HasErrors reports whether any Error or Fatal diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	return s.numError > 0 || s.numFatal > 0
}

// HasFatal reports whether a Fatal diagnostic was recorded.
func (s *Sink) HasFatal() bool {
	return s.numFatal > 0
}
