// Package flagx lets several config layers share os.Args: each layer keeps
// only the flags it owns and parses them with its own FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the allowed flags from args together with their values.
// Both "-f value" and "-f=value" forms are recognised. A token following an
// allowed flag is taken as its value unless it looks like another flag;
// negative numbers such as "-5" count as values.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && isValue(args[i+1]) {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

func isValue(s string) bool {
	if !strings.HasPrefix(s, "-") {
		return true
	}
	return len(s) > 1 && s[1] >= '0' && s[1] <= '9'
}

// JsonConfigFlags returns the config file path given by -c or -config, or an
// empty string when neither is present. Other arguments are ignored.
func JsonConfigFlags() string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return config
}
