package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
)

// MinInterval is the shortest poll period accepted from the command line.
const MinInterval = time.Second

// resolveInterval picks the poll period. The --interval flag wins when it
// was given; otherwise the config value is used. Values below MinInterval
// are raised to it.
func resolveInterval(flagSeconds int, flagSet bool, fromConfig time.Duration) time.Duration {
	d := fromConfig
	if flagSet {
		d = time.Duration(flagSeconds) * time.Second
	}
	if d <= 0 {
		d = config.DefaultInterval
	}
	if d < MinInterval {
		d = MinInterval
	}
	return d
}

// splitServers flattens repeated and comma separated --server values,
// dropping blanks and duplicates while keeping order.
func splitServers(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// validatePort checks a port typed by the user.
func validatePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a port number", s),
			"Use a number between 1 and 65535.")
	}
	if port < 1 || port > 65535 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", port),
			"Use a number between 1 and 65535.")
	}
	return port, nil
}
