// Package docsync synchronizes docstrings between a Python implementation
// file and its stub counterpart. Docstrings are collected from the source by
// declaration address (module, class, nested name path) and transplanted
// into the matching declarations of the target, leaving everything else in
// the target byte-identical.
package docsync

import (
	"context"

	"github.com/stubdoc/stubdoc/internal/ast"
	apperrors "github.com/stubdoc/stubdoc/internal/pkg/errors"
)

// Engine ties a parser to the collect and rewrite passes.
type Engine struct {
	parser ast.Parser
	opts   Options
}

// NewEngine creates an engine around the given parser.
func NewEngine(parser ast.Parser, opts Options) *Engine {
	return &Engine{parser: parser, opts: opts}
}

// Collect parses source text and returns its address-to-docstring mapping.
func (e *Engine) Collect(ctx context.Context, source []byte) (Mapping, error) {
	root, err := e.parser.Parse(ctx, source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, "parsing source", err)
	}
	return Collect(root, source), nil
}

// Rewrite parses target text and applies the mapping to it.
func (e *Engine) Rewrite(ctx context.Context, target []byte, docs Mapping) (*Result, error) {
	root, err := e.parser.Parse(ctx, target)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, "parsing target", err)
	}
	return Rewrite(root, target, docs, e.opts)
}

// Sync collects from source and rewrites target in one step.
func (e *Engine) Sync(ctx context.Context, source, target []byte) (*Result, error) {
	docs, err := e.Collect(ctx, source)
	if err != nil {
		return nil, err
	}
	return e.Rewrite(ctx, target, docs)
}
