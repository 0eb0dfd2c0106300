package report

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/sessionforge/sessionforge/pkg/renderctx"
)

// Context writes a flat rendering context. Text output lists one key per
// line in key order.
func (r *Renderer) Context(m renderctx.Map) error {
	if r.format != FormatText {
		return r.encode(map[string]any(m))
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(r.w, 0, 4, 1, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t= %v\n", k, m[k])
	}
	return tw.Flush()
}
