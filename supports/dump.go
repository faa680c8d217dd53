package supports

import (
	"encoding/json"
	"fmt"
	"io"
)

// Dump pretty-prints each value as indented JSON, falling back to %+v
func Dump(w io.Writer, arg ...any) {
	for _, a := range arg {
		if jsonBytes, err := json.MarshalIndent(a, "", "  "); err == nil {
			fmt.Fprintf(w, "%s\n", jsonBytes)
		} else {
			fmt.Fprintf(w, "%+v\n", a)
		}
	}
}
