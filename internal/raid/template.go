package raid

import (
	"strconv"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

// FormatMessage substitutes the fields of a raid event into a message template. Each
// of the following placeholders is replaced wherever it appears:
//
//	<from_broadcaster_user_id>, <from_broadcaster_user_login>, <from_broadcaster_user_name>
//	<to_broadcaster_user_id>,   <to_broadcaster_user_login>,   <to_broadcaster_user_name>
//	<viewers>
//
// Substitution happens in one pass over the template, so a substituted value that
// happens to look like a placeholder is left alone.
func FormatMessage(template string, ev *helix.EventSubChannelRaidEvent) string {
	r := strings.NewReplacer(
		"<to_broadcaster_user_id>", ev.ToBroadcasterUserID,
		"<to_broadcaster_user_login>", ev.ToBroadcasterUserLogin,
		"<to_broadcaster_user_name>", ev.ToBroadcasterUserName,
		"<from_broadcaster_user_id>", ev.FromBroadcasterUserID,
		"<from_broadcaster_user_login>", ev.FromBroadcasterUserLogin,
		"<from_broadcaster_user_name>", ev.FromBroadcasterUserName,
		"<viewers>", strconv.Itoa(ev.Viewers),
	)
	return r.Replace(template)
}
