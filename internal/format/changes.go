package format

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/spf13/cast"
)

// changesShown is how many changed objects are listed per transaction.
const changesShown = 3

// RecentChanges renders the transaction history, newest first as returned
// by the API. Changed objects are listed by Gramps ID where it resolves.
func (f *Formatter) RecentChanges(ctx context.Context, transactions []gramps.Object) string {
	if len(transactions) == 0 {
		return "No recent changes found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d recent changes:\n\n", len(transactions))

	for _, tx := range transactions {
		fmt.Fprintf(&b, "• **%s**\n", tx.StrOr("description", "Transaction"))
		fmt.Fprintf(&b, "  Time: %s\n", timestamp(tx["timestamp"]))
		fmt.Fprintf(&b, "  User: %s\n", tx.Obj("connection").Obj("user").StrOr("name", "Unknown"))

		changes := tx.Objects("changes")
		if len(changes) == 0 {
			b.WriteString("  Changes: 0 objects modified\n\n")
			continue
		}
		b.WriteString("  Objects changed:\n")
		for _, ch := range changes[:min(len(changes), changesShown)] {
			class := ch.StrOr("obj_class", "Unknown")
			fmt.Fprintf(&b, "    - %s: %s\n", class, f.resolveID(ctx, class, ch.StrOr("obj_handle", "N/A")))
		}
		if len(changes) > changesShown {
			fmt.Fprintf(&b, "    - ... and %d more\n", len(changes)-changesShown)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// resolveID maps a handle to its Gramps ID, falling back to the handle.
func (f *Formatter) resolveID(ctx context.Context, class, handle string) string {
	kind, ok := gramps.KindFor(class)
	if !ok || kind == gramps.Tags {
		return handle
	}
	rec, err := f.api.Record(ctx, kind, handle, nil)
	if err != nil || !rec.Has("gramps_id") {
		return handle
	}
	return rec.GrampsID()
}

// timestamp renders epoch seconds in local time; anything else is shown as is.
func timestamp(v any) string {
	switch t := v.(type) {
	case nil:
		return "Unknown time"
	case float64, int, int64:
		secs := cast.ToFloat64(t)
		return time.Unix(int64(secs), 0).Local().Format("2006-01-02 15:04:05")
	default:
		return cast.ToString(t)
	}
}
