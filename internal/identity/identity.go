// Package identity derives the stable conversation key shared by every
// lookup and create path.
package identity

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"chat-relay/internal/relayerr"
)

// Delimiter joins sorted usernames into a chat identity.
const Delimiter = "-"

// Derive builds the conversation key for a participant set. The caller must
// pass the full set, sender included; the same set always yields the same
// key regardless of input order or duplicates.
func Derive(participants []string) (string, error) {
	if len(participants) == 0 {
		return "", relayerr.New(relayerr.InvalidArgument, "participant set is empty")
	}
	for _, p := range participants {
		if p == "" {
			return "", relayerr.New(relayerr.InvalidArgument, "participant username is empty")
		}
	}

	users := lo.Uniq(participants)
	sort.Strings(users)
	return strings.Join(users, Delimiter), nil
}
