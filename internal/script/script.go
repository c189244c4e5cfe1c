// Package script parses detctl replay scripts.
//
// One directive per line, '#' starts a comment:
//
//	dev       <module> <instance> <api> <error>
//	runtime   <module> <instance> <api> <error>
//	transient <module> <instance> <api> <error>
//	clear     <category>
//
// Identifiers are decimal or 0x-prefixed hex; module ids must fit 16 bits,
// the others 8 bits.
package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
	"github.com/strongdm/ai-cxdb-det/pkg/stdtypes"
)

// Op is the kind of a directive.
type Op uint8

const (
	OpReport Op = iota
	OpClear
)

// Directive is one parsed script line.
type Directive struct {
	Line     int
	Op       Op
	Category det.Category
	Record   det.Record // set for OpReport
}

// Parse reads all directives from r.
func Parse(r io.Reader) ([]Directive, error) {
	var out []Directive
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		d, err := parseDirective(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		d.Line = lineNo
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return out, nil
}

func parseDirective(fields []string) (Directive, error) {
	verb := strings.ToLower(fields[0])
	if verb == "clear" {
		if len(fields) != 2 {
			return Directive{}, fmt.Errorf("clear takes one category, got %d arguments", len(fields)-1)
		}
		c, err := det.ParseCategory(fields[1])
		if err != nil {
			return Directive{}, err
		}
		return Directive{Op: OpClear, Category: c}, nil
	}

	c, err := det.ParseCategory(verb)
	if err != nil {
		return Directive{}, fmt.Errorf("unknown directive %q", fields[0])
	}
	if len(fields) != 5 {
		return Directive{}, fmt.Errorf("%s takes 4 identifiers, got %d", verb, len(fields)-1)
	}

	module, err := parseID(fields[1], 16, "module")
	if err != nil {
		return Directive{}, err
	}
	instance, err := parseID(fields[2], 8, "instance")
	if err != nil {
		return Directive{}, err
	}
	api, err := parseID(fields[3], 8, "api")
	if err != nil {
		return Directive{}, err
	}
	errID, err := parseID(fields[4], 8, "error")
	if err != nil {
		return Directive{}, err
	}

	return Directive{
		Op:       OpReport,
		Category: c,
		Record: det.Record{
			ModuleID:   uint16(module),
			InstanceID: uint8(instance),
			APIID:      uint8(api),
			ErrorID:    uint8(errID),
		},
	}, nil
}

func parseID(s string, bits int, name string) (uint64, error) {
	digits, base := s, 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		digits, base = s[2:], 16
	}
	v, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q: %w", name, s, err)
	}
	return v, nil
}

// Result summarizes a replay.
type Result struct {
	Reports  int
	Rejected int
	Clears   int
}

// Run applies directives to tracer in order.
func Run(ctx context.Context, tracer *det.Tracer, directives []Directive) (Result, error) {
	var res Result
	for _, d := range directives {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch d.Op {
		case OpReport:
			res.Reports++
			if tracer.Report(ctx, d.Category, d.Record) != stdtypes.OK {
				res.Rejected++
			}
		case OpClear:
			res.Clears++
			tracer.Clear(d.Category)
		}
	}
	return res, nil
}
