package convert

import (
	"regexp"
)

// Counts is the number of rewrites applied per category.
type Counts struct {
	Comments  int `json:"comments" yaml:"comments"`
	Opens     int `json:"opens" yaml:"opens"`
	ElseIfs   int `json:"else_ifs" yaml:"else_ifs"`
	Elses     int `json:"elses" yaml:"elses"`
	Closes    int `json:"closes" yaml:"closes"`
	Variables int `json:"variables" yaml:"variables"`
}

// Total is the sum of all categories.
func (c Counts) Total() int {
	return c.Comments + c.Opens + c.ElseIfs + c.Elses + c.Closes + c.Variables
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Comments:  c.Comments + o.Comments,
		Opens:     c.Opens + o.Opens,
		ElseIfs:   c.ElseIfs + o.ElseIfs,
		Elses:     c.Elses + o.Elses,
		Closes:    c.Closes + o.Closes,
		Variables: c.Variables + o.Variables,
	}
}

// Legacy tags may carry whitespace control dashes ({%- ... -%}); they are
// dropped. A comment opener must not follow "{" so that converted
// "{{#if" blocks are never read as comments.
var (
	commentPattern  = regexp.MustCompile(`(?s)\{#-?\s*(.*?)\s*-?#\}`)
	openPattern     = regexp.MustCompile(`\{%-?\s*if\s+(.+?)\s*-?%\}`)
	elseIfPattern   = regexp.MustCompile(`\{%-?\s*elif\s+(.+?)\s*-?%\}`)
	elsePattern     = regexp.MustCompile(`\{%-?\s*else\s*-?%\}`)
	closePattern    = regexp.MustCompile(`\{%-?\s*endif\s*-?%\}`)
	variablePattern = regexp.MustCompile(`\{\{(\s*)([A-Za-z_][A-Za-z0-9_.]*)(\s*)\}\}`)
)

type rule struct {
	pattern *regexp.Regexp
	replace string
	count   func(*Counts) *int
}

// rules run in this order. Comments go first so tags inside a comment are
// carried into the converted comment untouched.
var rules = []rule{
	{commentPattern, "{{!-- $1 --}}", func(c *Counts) *int { return &c.Comments }},
	{openPattern, "{{#if $1}}", func(c *Counts) *int { return &c.Opens }},
	{elseIfPattern, "{{else if $1}}", func(c *Counts) *int { return &c.ElseIfs }},
	{elsePattern, "{{else}}", func(c *Counts) *int { return &c.Elses }},
	{closePattern, "{{/if}}", func(c *Counts) *int { return &c.Closes }},
}

// apply replaces every match of the rule that does not directly follow
// "{" and returns the number of replacements. A skipped match resumes the
// search one byte later so it cannot swallow a real tag further on.
func (r rule) apply(src []byte) ([]byte, int) {
	var out []byte
	n, last, pos := 0, 0, 0
	for pos < len(src) {
		m := r.pattern.FindSubmatchIndex(src[pos:])
		if m == nil {
			break
		}
		for i := range m {
			if m[i] >= 0 {
				m[i] += pos
			}
		}
		if m[0] > 0 && src[m[0]-1] == '{' {
			pos = m[0] + 1
			continue
		}
		out = append(out, src[last:m[0]]...)
		out = r.pattern.Expand(out, []byte(r.replace), src, m)
		last, pos = m[1], m[1]
		n++
	}
	if n == 0 {
		return src, 0
	}
	return append(out, src[last:]...), n
}

// Rewrite converts legacy template syntax in src and reports what it
// changed. Input that contains no legacy syntax is returned as is with zero
// counts, which makes Rewrite idempotent.
func Rewrite(src []byte) ([]byte, Counts) {
	var counts Counts
	out := src

	for _, r := range rules {
		var n int
		out, n = r.apply(out)
		*r.count(&counts) += n
	}

	out = variablePattern.ReplaceAllFunc(out, func(m []byte) []byte {
		sub := variablePattern.FindSubmatch(m)
		if len(sub[1]) == 0 && len(sub[3]) == 0 {
			return m
		}
		counts.Variables++
		return append(append([]byte("{{"), sub[2]...), "}}"...)
	})

	if counts.Total() == 0 {
		return src, counts
	}
	return out, counts
}
