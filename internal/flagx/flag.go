// Package flagx helps the server and kiosk CLI share one process argument
// list: each component filters os.Args down to the flags it owns before
// handing them to its own flag.FlagSet.
package flagx

import "strings"

// FilterArgs keeps only the allowed flags and their values from args.
// Both the separated form ("-a :8000") and the combined form
// ("--address=:8000") are recognized. Unknown flags and their values are
// dropped, so a FlagSet parsing the result never trips over another
// component's flags.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// combined form: "-a=:8000" / "--address=:8000"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following non-flag argument is this flag's value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}
